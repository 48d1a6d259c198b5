package logger

import (
	"fmt"
	"log"
	"os"
	"time"
)

var (
	verboseMode bool
	infoLogger  *log.Logger
	debugLogger *log.Logger
	errorLogger *log.Logger
)

func init() {
	// Diagnostics go to stderr so the report on stdout stays clean
	infoLogger = log.New(os.Stderr, "", 0)
	debugLogger = log.New(os.Stderr, "", 0)
	errorLogger = log.New(os.Stderr, "ERROR: ", 0)
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	return verboseMode
}

func getTimestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

// Debugf logs a formatted debug message if verbose mode is enabled.
// Includes a timestamp.
func Debugf(format string, v ...interface{}) {
	if verboseMode {
		debugLogger.Printf("[%s] DEBUG: %s", getTimestamp(), fmt.Sprintf(format, v...))
	}
}

// Infof logs a formatted informational message.
func Infof(format string, v ...interface{}) {
	infoLogger.Printf(format, v...)
}

// Errorf logs a formatted error message.
func Errorf(format string, v ...interface{}) {
	errorLogger.Printf(format, v...)
}

// Package gitfile reads file contents out of git history.
package gitfile

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/lockdiff/lockdiff/pkg/logger"
)

// Show returns the contents of path as it exists at ref in the
// repository at dir. A missing ref or a path that does not exist at that
// ref is an error, carrying git's own message.
func Show(ctx context.Context, dir, ref, path string) (string, error) {
	logger.Debugf("git: show %s:%s in %s", ref, path, dir)

	cmd := exec.CommandContext(ctx, "git", "-C", dir, "show", fmt.Sprintf("%s:%s", ref, path))
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("git show %s:%s: %s", ref, path, msg)
	}
	return stdout.String(), nil
}

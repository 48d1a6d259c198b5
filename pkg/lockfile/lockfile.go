package lockfile

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
)

// Spec is one resolved gem at a snapshot: its name, the version it was
// locked to, and a descriptor of the source it was resolved from.
type Spec struct {
	Name    string
	Version string
	Source  string
}

// Snapshot is the parse result of one Gemfile.lock: every resolved spec
// keyed by name, plus the set of gem names declared directly in the
// Gemfile (the DEPENDENCIES section) rather than pulled in transitively.
type Snapshot struct {
	Specs    map[string]Spec
	Declared map[string]bool
}

// specLineRE matches a resolved spec line under a specs: block, e.g.
// "    rake (13.0.6)". Requirement lines are indented deeper and contain
// a leading space after the fourth column, so they never match.
var specLineRE = regexp.MustCompile(`^ {4}(\S+) \(([^)]+)\)$`)

// Parse reads Gemfile.lock text into a Snapshot. Sections it does not
// know about (PLATFORMS, BUNDLED WITH, ...) are skipped. Input with no
// recognizable sections at all is rejected.
func Parse(text string) (*Snapshot, error) {
	snap := &Snapshot{
		Specs:    make(map[string]Spec),
		Declared: make(map[string]bool),
	}

	var (
		section    string
		remote     string
		revision   string
		branch     string
		inSpecs    bool
		recognized bool
	)

	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		// Unindented lines start a new section.
		if !strings.HasPrefix(line, " ") {
			section = strings.TrimSpace(line)
			remote, revision, branch = "", "", ""
			inSpecs = false
			switch section {
			case "GEM", "GIT", "PATH", "DEPENDENCIES":
				recognized = true
			}
			continue
		}

		switch section {
		case "GEM", "GIT", "PATH":
			if m := specLineRE.FindStringSubmatch(line); m != nil {
				if !inSpecs {
					continue
				}
				name, version := m[1], m[2]
				snap.Specs[name] = Spec{
					Name:    name,
					Version: version,
					Source:  sourceDescriptor(section, remote, revision, branch),
				}
				continue
			}
			switch trimmed := strings.TrimSpace(line); {
			case trimmed == "specs:":
				inSpecs = true
			case strings.HasPrefix(trimmed, "remote: "):
				remote = strings.TrimPrefix(trimmed, "remote: ")
			case strings.HasPrefix(trimmed, "revision: "):
				revision = strings.TrimPrefix(trimmed, "revision: ")
			case strings.HasPrefix(trimmed, "branch: "):
				branch = strings.TrimPrefix(trimmed, "branch: ")
			}
		case "DEPENDENCIES":
			name := strings.TrimSpace(line)
			if i := strings.IndexAny(name, " ("); i >= 0 {
				name = name[:i]
			}
			name = strings.TrimSuffix(name, "!")
			if name != "" {
				snap.Declared[name] = true
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lock file text: %w", err)
	}
	if !recognized {
		return nil, fmt.Errorf("not a valid Gemfile.lock: no GEM, GIT, PATH or DEPENDENCIES section found")
	}

	return snap, nil
}

// sourceDescriptor renders a spec's source the way Bundler describes it,
// which is what the source classification downstream keys on.
func sourceDescriptor(section, remote, revision, branch string) string {
	switch section {
	case "GIT":
		rev := revision
		if len(rev) > 7 {
			rev = rev[:7]
		}
		switch {
		case branch != "" && rev != "":
			return fmt.Sprintf("%s (at %s@%s)", remote, branch, rev)
		case rev != "":
			return fmt.Sprintf("%s (at %s)", remote, rev)
		default:
			return remote
		}
	case "PATH":
		return fmt.Sprintf("source at `%s`", remote)
	default:
		return "locally installed gems"
	}
}

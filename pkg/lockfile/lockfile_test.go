package lockfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLock = `GIT
  remote: https://github.com/rails/rails.git
  revision: 0123456789abcdef0123456789abcdef01234567
  branch: main
  specs:
    rails (7.1.2)
      actionpack (= 7.1.2)
      activesupport (= 7.1.2)

PATH
  remote: ../internal-gem
  specs:
    internal-gem (0.4.0)

GEM
  remote: https://rubygems.org/
  specs:
    rake (13.0.6)
    rack (2.2.8)
      webrick (>= 1.7)
    nokogiri (1.15.4-x86_64-linux)

PLATFORMS
  ruby
  x86_64-linux

DEPENDENCIES
  internal-gem!
  nokogiri
  rails!
  rake (~> 13.0)

BUNDLED WITH
   2.4.10
`

func TestParse_Sections(t *testing.T) {
	snap, err := Parse(sampleLock)
	require.NoError(t, err)

	require.Len(t, snap.Specs, 5)

	rails := snap.Specs["rails"]
	assert.Equal(t, "rails", rails.Name)
	assert.Equal(t, "7.1.2", rails.Version)
	assert.Equal(t, "https://github.com/rails/rails.git (at main@0123456)", rails.Source)

	internal := snap.Specs["internal-gem"]
	assert.Equal(t, "0.4.0", internal.Version)
	assert.Equal(t, "source at `../internal-gem`", internal.Source)

	rake := snap.Specs["rake"]
	assert.Equal(t, "13.0.6", rake.Version)
	assert.Equal(t, "locally installed gems", rake.Source)

	// Platform-suffixed versions are kept verbatim
	assert.Equal(t, "1.15.4-x86_64-linux", snap.Specs["nokogiri"].Version)
}

func TestParse_RequirementLinesAreSkipped(t *testing.T) {
	snap, err := Parse(sampleLock)
	require.NoError(t, err)

	// actionpack, activesupport and webrick only appear as requirement
	// lines under other specs, never as resolved specs themselves.
	assert.NotContains(t, snap.Specs, "actionpack")
	assert.NotContains(t, snap.Specs, "activesupport")
	assert.NotContains(t, snap.Specs, "webrick")
}

func TestParse_Declared(t *testing.T) {
	snap, err := Parse(sampleLock)
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{
		"internal-gem": true,
		"nokogiri":     true,
		"rails":        true,
		"rake":         true,
	}, snap.Declared)
}

func TestParse_GitWithoutBranch(t *testing.T) {
	snap, err := Parse(`GIT
  remote: https://github.com/puma/puma.git
  revision: abcdef0123456789
  specs:
    puma (6.4.0)
`)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/puma/puma.git (at abcdef0)", snap.Specs["puma"].Source)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("this is not a lock file\njust some text\n")
	require.Error(t, err)

	_, err = Parse("")
	require.Error(t, err)
}

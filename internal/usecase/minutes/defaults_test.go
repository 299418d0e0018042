package minutes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults_EmptyPathIsBuiltin(t *testing.T) {
	d, err := LoadDefaults("")
	require.NoError(t, err)
	assert.Equal(t, BuiltinDefaults(), d)
}

func TestLoadDefaults_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sentinel: Not stated\nfields:\n  location: Online\n"), 0o600))

	d, err := LoadDefaults(path)
	require.NoError(t, err)
	assert.Equal(t, "Not stated", d.Sentinel)
	assert.Equal(t, DefaultPlaceholder, d.Placeholder)
	assert.Equal(t, "Online", d.Fields["location"])
	assert.Equal(t, "Capital & Estates Meeting", d.Fields["meetingTitle"])
}

func TestLoadDefaults_MissingFile(t *testing.T) {
	_, err := LoadDefaults(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseDefaults_RejectsUnknownFields(t *testing.T) {
	_, err := ParseDefaults([]byte("fields:\n  patientName: x\n  zeta: y\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "patientName, zeta")
}

func TestParseDefaults_InvalidYAML(t *testing.T) {
	_, err := ParseDefaults([]byte("fields: [unclosed"))
	assert.Error(t, err)
}

func TestDefaults_MergeDoesNotMutate(t *testing.T) {
	base := BuiltinDefaults()
	merged := base.Merge(Defaults{Fields: map[string]string{"location": "HQ"}})

	assert.Equal(t, "HQ", merged.Fields["location"])
	_, ok := base.Fields["location"]
	assert.False(t, ok)
}

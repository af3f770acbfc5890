package jsgf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProfileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yaml")
	body := "name: kitchen\nsearch_dirs:\n  - /grammars/kitchen\n  - /grammars/common\ncase_sensitive: true\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	p, err := LoadProfileYAML(path)
	require.NoError(t, err)
	assert.Equal(t, "kitchen", p.Name)
	assert.Equal(t, []string{"/grammars/kitchen", "/grammars/common"}, p.SearchDirs)
	assert.True(t, p.CaseSensitive)
}

func TestLoadProfileYAMLMissingFile(t *testing.T) {
	_, err := LoadProfileYAML(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadProfilePlist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.plist")
	body := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>name</key>
	<string>kitchen</string>
	<key>searchDirs</key>
	<array>
		<string>/grammars/kitchen</string>
	</array>
	<key>caseSensitive</key>
	<false/>
</dict>
</plist>
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	p, err := LoadProfilePlist(path)
	require.NoError(t, err)
	assert.Equal(t, "kitchen", p.Name)
	assert.Equal(t, []string{"/grammars/kitchen"}, p.SearchDirs)
	assert.False(t, p.CaseSensitive)
}

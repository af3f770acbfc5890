package jsgf

import (
	"os"

	"gopkg.in/yaml.v3"
	"howett.net/plist"
)

// Profile is the settings a CLI or embedding application loads once at
// startup: where to find grammars and what default case policy to apply.
type Profile struct {
	Name          string   `yaml:"name" plist:"name"`
	SearchDirs    []string `yaml:"search_dirs" plist:"searchDirs"`
	CaseSensitive bool     `yaml:"case_sensitive" plist:"caseSensitive"`
}

// LoadProfileYAML reads a Profile from a YAML file.
func LoadProfileYAML(path string) (*Profile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := yaml.Unmarshal(content, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadProfilePlist reads a Profile from an Apple property list file.
func LoadProfilePlist(path string) (*Profile, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Profile
	if _, err := plist.Unmarshal(content, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Package prompt loads the system preamble placed at the head of every new
// thread.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type File struct {
	System string `yaml:"system"`
}

// Load reads a preamble from path. Files ending in .yaml or .yml are parsed
// for a "system" key; anything else is used as plain text. A missing file
// yields an empty string and no error.
func Load(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read prompt %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var f File
		if err := yaml.Unmarshal(data, &f); err != nil {
			return "", fmt.Errorf("parse prompt %s: %w", path, err)
		}
		return strings.TrimSpace(f.System), nil
	default:
		return strings.TrimSpace(string(data)), nil
	}
}

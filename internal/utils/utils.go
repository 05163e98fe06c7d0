// Package utils the file helpers of the command line
package utils

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ZeroOr if value is zero value returns the defaultValue
func ZeroOr[T comparable](value, defaultValue T) T {
	var zero T
	if zero == value {
		return defaultValue
	}
	return value
}

// ExpandPath expands path "." or "~"
func ExpandPath(path string) (string, error) {
	// expand local directory
	if path == "." || strings.HasPrefix(path, "./") {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(cwd, path[1:]), nil
	}
	// expand ~ as shortcut for home directory
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// ReadYaml read the YAML file and convert it to T
func ReadYaml[T any](path string) (*T, error) {
	t := new(T)
	if err := DecodeYaml(path, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DecodeYaml read the YAML file into value, the fields absent
// in the file keep their values.
func DecodeYaml(path string, value any) error {
	path, err := ExpandPath(path)
	if err != nil {
		return err
	}
	bytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(bytes, value)
}

// WriteYaml write the value as YAML to the file, the parent
// directories are created if not exist.
func WriteYaml(path string, value any) error {
	path, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	bytes, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	return os.WriteFile(path, bytes, 0o644)
}

package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a configurations file from the given path.
//
// The file format is determined by extension: .yaml/.yml for YAML, .json for
// JSON. If the extension is unrecognized, YAML is attempted first, then JSON.
//
// Returns an error if:
//   - The file cannot be read (not found, permission denied, etc.)
//   - The file content is not valid YAML or JSON
//   - Any declared configuration fails validation (see FromSpec)
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configurations file not found: %s", path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("permission denied reading configurations: %s", path)
		}
		return nil, fmt.Errorf("failed to read configurations file: %w", err)
	}

	return LoadFromBytes(data, path)
}

// LoadFromBytes parses and validates a configurations file from raw bytes.
//
// The path parameter is used for error messages and format detection.
// If path is empty, format detection falls back to trying YAML first.
func LoadFromBytes(data []byte, path string) (*Registry, error) {
	if len(data) == 0 {
		return nil, errors.New("configurations file is empty")
	}

	file, err := parseFile(data, path)
	if err != nil {
		return nil, err
	}

	return newRegistry(file)
}

// parseFile parses the configurations data based on file extension.
func parseFile(data []byte, path string) (*File, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".json":
		return parseJSON(data)
	case ".yaml", ".yml":
		return parseYAML(data)
	default:
		file, yamlErr := parseYAML(data)
		if yamlErr == nil {
			return file, nil
		}
		file, jsonErr := parseJSON(data)
		if jsonErr == nil {
			return file, nil
		}
		// Both failed - return YAML error as it's the preferred format
		return nil, fmt.Errorf("failed to parse configurations (tried YAML and JSON): %w", yamlErr)
	}
}

func parseJSON(data []byte) (*File, error) {
	var file File
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return &file, nil
}

func parseYAML(data []byte) (*File, error) {
	var file File
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return &file, nil
}

package importfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a bookmark import file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse import file: %w", err)
	}
	return &f, nil
}

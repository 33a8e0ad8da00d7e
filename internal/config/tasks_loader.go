package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// LoadTasksFile loads and validates a tasks file using Koanf.
//
// Error cases:
//   - File not found or cannot be read
//   - Invalid YAML syntax
//   - Schema validation failure (unsupported version, duplicate names, invalid task)
func LoadTasksFile(filepath string) (*TasksFile, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(filepath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load tasks file %q: %w", filepath, err)
	}

	var tf TasksFile
	if err := k.UnmarshalWithConf("", &tf, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return nil, fmt.Errorf("failed to parse tasks file %q: %w", filepath, err)
	}

	if err := tf.Validate(); err != nil {
		return nil, fmt.Errorf("tasks file validation failed for %q: %w", filepath, err)
	}

	return &tf, nil
}

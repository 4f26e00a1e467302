// Package tooldefs loads the tool descriptors offered to the chat model.
package tooldefs

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/notefhir/internal/domain/entities"
)

//go:embed default_tools.yaml
var defaultTools []byte

// Default returns the built-in descriptors for the three extraction tools.
func Default() ([]entities.ToolDescriptor, error) {
	return Parse(defaultTools)
}

// Load reads descriptors from a YAML file, or the built-in set when path is empty.
func Load(path string) ([]entities.ToolDescriptor, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tools file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML (or JSON) list of descriptors.
func Parse(data []byte) ([]entities.ToolDescriptor, error) {
	var tools []entities.ToolDescriptor
	if err := yaml.Unmarshal(data, &tools); err != nil {
		return nil, fmt.Errorf("failed to parse tool descriptors: %w", err)
	}
	for i := range tools {
		if tools[i].Type == "" {
			tools[i].Type = "function"
		}
	}
	return tools, nil
}

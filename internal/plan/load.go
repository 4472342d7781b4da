package plan

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidFile is returned when a plan file declares neither or both of
// "tiers" and "tables".
var ErrInvalidFile = errors.New("plan file must declare exactly one of 'tiers' or 'tables'")

// File is the YAML shape of a plan file.
//
//	tiers:
//	  - [SUCURSALES, PROVEEDORES]
//	  - [PRODUCTOS]
//
// or
//
//	tables:
//	  - name: PRODUCTOS
//	    depends_on: [PROVEEDORES]
type File struct {
	Tiers  [][]string `yaml:"tiers,omitempty"`
	Tables []Table    `yaml:"tables,omitempty"`
}

// Load reads a plan from a YAML file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Parse(data)
}

// Parse builds a plan from YAML content.
func Parse(data []byte) (*Plan, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}

	switch {
	case len(f.Tiers) > 0 && len(f.Tables) == 0:
		return FromTiers(f.Tiers)
	case len(f.Tables) > 0 && len(f.Tiers) == 0:
		return New(f.Tables)
	default:
		return nil, ErrInvalidFile
	}
}

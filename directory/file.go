package directory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a directory:
//
//	agents:
//	  - id: alice
//	    name: Alice
//	    role: SRE
//	    knowledge:
//	      - "Deploys freeze on Fridays."
//	channels:
//	  - id: ops
//	    name: Operations
//	    agents: [alice]
type File struct {
	Agents   []Agent   `yaml:"agents"`
	Channels []Channel `yaml:"channels"`
}

// Parse decodes YAML data into a File.
func Parse(data []byte) (File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("directory: parse: %w", err)
	}
	return f, nil
}

// ReadFile reads and decodes the file at path.
func ReadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("directory: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadFile builds a Static directory from the YAML file at path.
func LoadFile(path string) (*Static, error) {
	f, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewStatic(f.Agents, f.Channels)
}

// Reload replaces the content of s with the file at path. On error the
// current content is kept.
func (s *Static) Reload(path string) error {
	f, err := ReadFile(path)
	if err != nil {
		return err
	}
	return s.Replace(f.Agents, f.Channels)
}

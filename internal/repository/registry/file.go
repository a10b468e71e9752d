package registry

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// fileFormat is the on-disk layout of a registry file.
type fileFormat struct {
	Devices []Device `yaml:"devices"`
}

// filePermissions restricts registry files to the owner.
const filePermissions = 0o600

// LoadFile reads a YAML registry file into a MemoryRegistry.
func LoadFile(path string) (*MemoryRegistry, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read registry file: %w", err)
	}

	var parsed fileFormat
	if err = yaml.Unmarshal(contents, &parsed); err != nil {
		return nil, fmt.Errorf("decode registry file: %w", err)
	}

	return NewMemoryRegistry(parsed.Devices...)
}

// SaveFile writes every device in r to path as YAML.
func (r *MemoryRegistry) SaveFile(path string) error {
	data, err := yaml.Marshal(fileFormat{Devices: r.Devices()})
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, filePermissions); err != nil {
		return fmt.Errorf("write registry file: %w", err)
	}

	return nil
}

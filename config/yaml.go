package config

import (
	"io"

	"gopkg.in/yaml.v3"
)

// WriteYAML writes the effective configuration.
func (c *Root) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

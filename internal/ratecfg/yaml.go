package ratecfg

import (
	"io"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Simplici0/pricepilot/internal/errors"
)

// EncodeYAML writes cfg as YAML.
func EncodeYAML(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// DecodeYAML reads a configuration and validates it. Fields absent from the
// document keep their built-in default.
func DecodeYAML(r io.Reader) (*Config, error) {
	cfg := Defaults()
	if err := yaml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.TypeConfig, "decode rate configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

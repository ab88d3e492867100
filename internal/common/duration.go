package common

import (
	"time"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so configuration files can use human
// readable values like "30s", "5m" or "1h30m45s" in YAML, JSON and TOML.
type Duration struct {
	time.Duration
}

// NewDuration creates a Duration from a time.Duration.
func NewDuration(d time.Duration) Duration {
	return Duration{Duration: d}
}

// UnmarshalText parses a duration string. It is used by the JSON and
// TOML decoders through encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(data []byte) error {
	parsed, err := time.ParseDuration(string(data))
	if err != nil {
		return err
	}

	d.Duration = parsed
	return nil
}

// MarshalText returns the duration in its canonical string form.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration string from a YAML scalar node.
// yaml.v3 does not use encoding.TextUnmarshaler, so this is needed
// for YAML configuration files.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	return d.UnmarshalText([]byte(raw))
}

// MarshalYAML returns the duration in its canonical string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// JSONSchema describes Duration for the generated configuration schema.
func (d Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Title:       "Duration",
		Description: "Duration expressed in units: ns, us, ms, s, m, h",
		Examples:    []any{"300ms", "15s", "1m", "2h45m"},
	}
}

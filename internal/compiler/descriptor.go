package compiler

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/aretw0/neoform/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// ConfigEntry is the descriptor document inside the archive.
const ConfigEntry = "config.json"

// Descriptor is the decoded config.json of a NeoForm archive.
type Descriptor struct {
	Version    string              `mapstructure:"version"`
	JavaTarget int                 `mapstructure:"java_target"`
	Libraries  map[string][]string `mapstructure:"libraries"`
	Data       map[string]any      `mapstructure:"data"`
	Steps      map[string][]Step   `mapstructure:"steps"`
	Functions  map[string]Function `mapstructure:"functions"`
}

// Step is one entry of a distribution's step list. Every key other than
// name and type is a step value.
type Step struct {
	Name   string         `mapstructure:"name"`
	Type   string         `mapstructure:"type"`
	Values map[string]any `mapstructure:",remain"`
}

// Function declares how a non built-in step type is run.
type Function struct {
	Version string   `mapstructure:"version"`
	Args    []string `mapstructure:"args"`
	JvmArgs []string `mapstructure:"jvmargs"`
	Repo    string   `mapstructure:"repo"`
}

// StepName returns the explicit name of the step, or its type.
func (s Step) StepName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Type
}

// StepValues returns the step's own values. A nested "values" object is
// merged over the inline keys.
func (s Step) StepValues() (map[string]string, error) {
	out := make(map[string]string, len(s.Values))
	merge := func(m map[string]any) error {
		for k, v := range m {
			str, ok := v.(string)
			if !ok {
				return domain.Errorf(domain.ErrInvalidDescriptor, s.StepName(), "value %q must be a string, got %T", k, v)
			}
			out[k] = str
		}
		return nil
	}

	inline := make(map[string]any, len(s.Values))
	var nested map[string]any
	for k, v := range s.Values {
		if k == "values" {
			m, ok := v.(map[string]any)
			if !ok {
				return nil, domain.Errorf(domain.ErrInvalidDescriptor, s.StepName(), "values must be an object, got %T", v)
			}
			nested = m
			continue
		}
		inline[k] = v
	}
	if err := merge(inline); err != nil {
		return nil, err
	}
	if err := merge(nested); err != nil {
		return nil, err
	}
	return out, nil
}

// DataKeys returns the data entry keys, sorted.
func (d *Descriptor) DataKeys() []string {
	keys := make([]string, 0, len(d.Data))
	for k := range d.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ReadConfig returns the raw config.json bytes of the archive.
func ReadConfig(archive *zip.Reader) ([]byte, error) {
	for _, f := range archive.File {
		if f.Name != ConfigEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", ConfigEntry, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ConfigEntry, err)
		}
		return data, nil
	}
	return nil, domain.ErrConfigNotFound
}

// ParseDescriptor decodes config.json content.
func ParseDescriptor(data []byte) (*Descriptor, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDescriptor, err)
	}

	var d Descriptor
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &d,
		TagName: "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDescriptor, err)
	}
	if d.JavaTarget == 0 {
		d.JavaTarget = DefaultJavaTarget
	}
	return &d, nil
}

// LoadDescriptor reads and decodes config.json from the archive.
func LoadDescriptor(archive *zip.Reader) (*Descriptor, error) {
	data, err := ReadConfig(archive)
	if err != nil {
		return nil, err
	}
	return ParseDescriptor(data)
}

package hammer

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed variations.yaml
var defaultTables []byte

// DefaultSlots is the number of variation weights written per candidate.
const DefaultSlots = 24

// Tables holds the per-channel form-factor variation shifts and the number
// of variation schemes to build.
type Tables struct {
	Slots      int                  `yaml:"slots"`
	Variations map[string][]Options `yaml:"variations"`
}

// DefaultTables returns the built-in variation tables.
func DefaultTables() Tables {
	t, err := LoadTables(bytes.NewReader(defaultTables))
	if err != nil {
		panic(fmt.Sprintf("hammer: embedded variation tables: %v", err))
	}
	return t
}

// LoadTables decodes and validates variation tables.
func LoadTables(r io.Reader) (Tables, error) {
	var t Tables
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return Tables{}, fmt.Errorf("decode variation tables: %w", err)
	}
	if err := t.validate(); err != nil {
		return Tables{}, err
	}
	return t, nil
}

// LoadTablesFile reads tables from path and overlays them on the defaults:
// a non-zero slot count and every listed channel replace the built-in values.
func LoadTablesFile(path string) (Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return Tables{}, fmt.Errorf("open variation tables: %w", err)
	}
	defer f.Close()

	override, err := LoadTables(f)
	if err != nil {
		return Tables{}, fmt.Errorf("%s: %w", path, err)
	}
	return DefaultTables().Merge(override), nil
}

// Merge returns t with the slot count and channels of o applied on top.
func (t Tables) Merge(o Tables) Tables {
	out := Tables{Slots: t.Slots, Variations: make(map[string][]Options, len(t.Variations))}
	for k, v := range t.Variations {
		out.Variations[k] = v
	}
	if o.Slots > 0 {
		out.Slots = o.Slots
	}
	for k, v := range o.Variations {
		out.Variations[k] = v
	}
	return out
}

// For returns the variation shifts of c.
func (t Tables) For(c Channel) []Options {
	return t.Variations[c.Decay()]
}

func (t Tables) validate() error {
	if t.Slots < 0 {
		return fmt.Errorf("variation slots must not be negative, got %d", t.Slots)
	}
	for name, vars := range t.Variations {
		c, err := ParseChannel(name)
		if err != nil {
			return err
		}
		if t.Slots > 0 && len(vars) > t.Slots {
			return fmt.Errorf("channel %s has %d variations, more than %d slots", c, len(vars), t.Slots)
		}
	}
	return nil
}

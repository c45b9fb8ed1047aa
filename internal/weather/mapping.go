package weather

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed param_mapping.json
var defaultMappingJSON []byte

const (
	groupHourlyCurrent = "hourly_current"
	groupDaily         = "daily"
)

// WireParams is the provider parameter list a field maps to.
// The mapping file may spell a single parameter as a plain string.
type WireParams []string

func (w *WireParams) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*w = WireParams{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("wire must be a string or a list of strings: %w", err)
	}
	*w = many
	return nil
}

// FieldOption is one UI-selectable weather quantity.
type FieldOption struct {
	Name string     `json:"name"`
	Wire WireParams `json:"wire"`
	// Columns names the decoded output columns of a multi-parameter field.
	Columns []string `json:"columns,omitempty"`
}

// FieldMapping translates human field names into provider parameters.
// It is read-only after construction and safe for concurrent use.
type FieldMapping struct {
	groups map[string][]FieldOption
	index  map[string]map[string]FieldOption
}

// DefaultFieldMapping returns the mapping compiled into the binary.
func DefaultFieldMapping() *FieldMapping {
	m, err := ParseFieldMapping(defaultMappingJSON)
	if err != nil {
		panic(fmt.Sprintf("weather: embedded field mapping is invalid: %v", err))
	}
	return m
}

// LoadFieldMapping reads a mapping file, or the embedded default when path is empty.
func LoadFieldMapping(path string) (*FieldMapping, error) {
	if path == "" {
		return DefaultFieldMapping(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field mapping: %w", err)
	}
	return ParseFieldMapping(data)
}

// ParseFieldMapping parses and validates a JSON mapping document.
func ParseFieldMapping(data []byte) (*FieldMapping, error) {
	var raw map[string][]FieldOption
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse field mapping: %w", err)
	}

	m := &FieldMapping{
		groups: make(map[string][]FieldOption, len(raw)),
		index:  make(map[string]map[string]FieldOption, len(raw)),
	}
	for _, group := range []string{groupHourlyCurrent, groupDaily} {
		opts, ok := raw[group]
		if !ok || len(opts) == 0 {
			return nil, fmt.Errorf("field mapping: group %q is missing or empty", group)
		}
		idx := make(map[string]FieldOption, len(opts))
		for _, opt := range opts {
			if err := validateOption(opt); err != nil {
				return nil, fmt.Errorf("field mapping %s: %w", group, err)
			}
			if _, dup := idx[opt.Name]; dup {
				return nil, fmt.Errorf("field mapping %s: duplicate field %q", group, opt.Name)
			}
			idx[opt.Name] = opt
		}
		m.groups[group] = opts
		m.index[group] = idx
	}
	return m, nil
}

func validateOption(opt FieldOption) error {
	if opt.Name == "" {
		return fmt.Errorf("field with empty name")
	}
	if len(opt.Wire) == 0 {
		return fmt.Errorf("field %q has no wire parameters", opt.Name)
	}
	for _, w := range opt.Wire {
		if w == "" {
			return fmt.Errorf("field %q has an empty wire parameter", opt.Name)
		}
	}
	if len(opt.Wire) > 1 && len(opt.Columns) != len(opt.Wire) {
		return fmt.Errorf("field %q maps to %d parameters but names %d columns",
			opt.Name, len(opt.Wire), len(opt.Columns))
	}
	if len(opt.Wire) == 1 && len(opt.Columns) > 1 {
		return fmt.Errorf("field %q names %d columns for a single parameter", opt.Name, len(opt.Columns))
	}
	return nil
}

func groupFor(mode Mode) string {
	if mode == ModeDaily {
		return groupDaily
	}
	return groupHourlyCurrent
}

// Options lists the selectable field names for a mode, in display order.
func (m *FieldMapping) Options(mode Mode) []string {
	opts := m.groups[groupFor(mode)]
	names := make([]string, 0, len(opts))
	for _, o := range opts {
		names = append(names, o.Name)
	}
	return names
}

func (m *FieldMapping) lookup(mode Mode, name string) (FieldOption, error) {
	opt, ok := m.index[groupFor(mode)][name]
	if !ok {
		return FieldOption{}, &UnknownFieldError{Mode: mode, Field: name}
	}
	return opt, nil
}

// Resolve maps human field names to wire parameters, in order.
// Multi-parameter fields contribute all their parameters consecutively; the result
// is the exact positional order the provider will answer in. A repeated name is
// rejected because its columns could not be told apart in the reply.
func (m *FieldMapping) Resolve(mode Mode, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, name)
		}
		seen[name] = struct{}{}
		opt, err := m.lookup(mode, name)
		if err != nil {
			return nil, err
		}
		out = append(out, opt.Wire...)
	}
	return out, nil
}

// Columns returns the decoded column names a field produces, one per positional slot.
func (m *FieldMapping) Columns(mode Mode, name string) ([]string, error) {
	opt, err := m.lookup(mode, name)
	if err != nil {
		return nil, err
	}
	if len(opt.Columns) == 0 {
		return []string{opt.Name}, nil
	}
	return append([]string(nil), opt.Columns...), nil
}

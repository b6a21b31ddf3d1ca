package dataset

import (
	"strings"
)

// truthy is the closed set of values a flag column treats as true.
var truthy = map[string]bool{
	"1":    true,
	"true": true,
	"yes":  true,
	"y":    true,
	"x":    true,
	"✓":    true,
}

// IsTruthy evaluates a flag cell. Anything outside the truthy set, including
// the empty string, is false.
func IsTruthy(v string) bool {
	return truthy[strings.ToLower(strings.TrimSpace(v))]
}

// SplitAliases splits an alias cell on ';' or ',' keeping order and
// duplicates and dropping empty tokens.
func SplitAliases(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Record is one dataset row. Values are fixed once the record is built.
type Record struct {
	schema *Schema
	values map[string]string
}

// NewRecord copies values into a record bound to schema.
func NewRecord(schema *Schema, values map[string]string) Record {
	v := make(map[string]string, len(values))
	for k, val := range values {
		v[k] = val
	}
	return Record{schema: schema, values: v}
}

// Field returns the value of col, or "" when the column is absent.
func (r Record) Field(col string) string {
	if col == "" {
		return ""
	}
	return r.values[col]
}

// Flag evaluates col as a boolean indication.
func (r Record) Flag(col string) bool {
	return IsTruthy(r.Field(col))
}

// Fields returns a copy of the raw column values.
func (r Record) Fields() map[string]string {
	out := make(map[string]string, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Schema returns the schema the record was loaded with.
func (r Record) Schema() *Schema { return r.schema }

func (r Record) role(pick func(*Schema) string) string {
	if r.schema == nil {
		return ""
	}
	return r.Field(pick(r.schema))
}

func (r Record) Key() string {
	return r.role(func(s *Schema) string { return s.KeyCol })
}

func (r Record) Name() string {
	return r.role(func(s *Schema) string { return s.NameCol })
}

func (r Record) Aliases() []string {
	return SplitAliases(r.role(func(s *Schema) string { return s.AliasCol }))
}

func (r Record) Mechanism() string {
	return r.role(func(s *Schema) string { return s.MechanismCol })
}

func (r Record) Evidence() string {
	return r.role(func(s *Schema) string { return s.EvidenceCol })
}

func (r Record) Cost() string {
	return r.role(func(s *Schema) string { return s.CostCol })
}

func (r Record) IndicationsDisplay() string {
	return r.role(func(s *Schema) string { return s.IndicationsDisplayCol })
}

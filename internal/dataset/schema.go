// Package dataset loads the supplement CSV into typed, read-only records.
package dataset

import (
	"github.com/BrainPreserve/supplements/internal/config"
)

// Schema is the header of a loaded dataset plus the semantic role each
// configured column plays. It is derived once at load time.
type Schema struct {
	Header []string

	KeyCol                string
	NameCol               string
	AliasCol              string
	FlagCols              []string
	DetailCols            []string
	BrandCols             []string
	MechanismCol          string
	IndicationsDisplayCol string
	EvidenceCol           string
	CostCol               string

	index map[string]int
}

// NewSchema binds column roles to a header.
func NewSchema(header []string, cols config.ColumnsConfig) *Schema {
	s := &Schema{
		Header:                append([]string(nil), header...),
		KeyCol:                cols.KeyCol,
		NameCol:               cols.NameCol,
		AliasCol:              cols.AliasCol,
		FlagCols:              append([]string(nil), cols.FlagCols...),
		DetailCols:            append([]string(nil), cols.DetailCols...),
		BrandCols:             append([]string(nil), cols.BrandCols...),
		MechanismCol:          cols.MechanismCol,
		IndicationsDisplayCol: cols.IndicationsDisplayCol,
		EvidenceCol:           cols.EvidenceCol,
		CostCol:               cols.CostCol,
		index:                 make(map[string]int, len(header)),
	}
	for i, h := range s.Header {
		s.index[h] = i
	}
	return s
}

// HasColumn reports whether col is present in the header.
func (s *Schema) HasColumn(col string) bool {
	if s == nil || col == "" {
		return false
	}
	_, ok := s.index[col]
	return ok
}

// IsFlagColumn reports whether col is one of the configured flag columns.
func (s *Schema) IsFlagColumn(col string) bool {
	if s == nil {
		return false
	}
	for _, fc := range s.FlagCols {
		if fc == col {
			return true
		}
	}
	return false
}

// MissingRoles lists configured role columns that the header lacks. Records
// still answer those columns with empty strings.
func (s *Schema) MissingRoles() []string {
	var missing []string
	seen := make(map[string]bool)
	check := func(col string) {
		if col == "" || seen[col] {
			return
		}
		seen[col] = true
		if !s.HasColumn(col) {
			missing = append(missing, col)
		}
	}

	check(s.KeyCol)
	check(s.NameCol)
	check(s.AliasCol)
	for _, c := range s.FlagCols {
		check(c)
	}
	for _, c := range s.DetailCols {
		check(c)
	}
	for _, c := range s.BrandCols {
		check(c)
	}
	check(s.MechanismCol)
	check(s.IndicationsDisplayCol)
	check(s.EvidenceCol)
	check(s.CostCol)
	return missing
}

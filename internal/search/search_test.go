package search

import (
	"github.com/BrainPreserve/supplements/internal/config"
	"github.com/BrainPreserve/supplements/internal/dataset"
)

var testHeader = []string{
	"supplement_key", "supplement_name", "aliases",
	"sleep_flag", "metabolic_flag", "cardiovascular_flag", "immune_flag", "anti_inflammatory_flag",
	"level_of_evidence", "mechanisms", "cost",
}

var testSchema = dataset.NewSchema(testHeader, config.DefaultConfig().Dataset.Columns)

// rec builds a record; columns not given read as empty.
func rec(values map[string]string) dataset.Record {
	return dataset.NewRecord(testSchema, values)
}

func keyed(key, name string) dataset.Record {
	return rec(map[string]string{"supplement_key": key, "supplement_name": name})
}

// matchFixture is a small catalogue exercising every match rule.
func matchFixture() []dataset.Record {
	return []dataset.Record{
		rec(map[string]string{
			"supplement_key":  "vitamin_b12",
			"supplement_name": "Vitamin B12",
			"aliases":         "cobalamin; methylcobalamin",
			"mechanisms":      "Supports methylation and myelin synthesis",
		}),
		keyed("bilberry_extract", "Bilberry Extract"),
		rec(map[string]string{
			"supplement_key":  "vitamin_b1",
			"supplement_name": "Thiamine",
			"aliases":         "B1",
		}),
		keyed("calcium", "Calcium"),
		keyed("vitamin_c", "Vitamin C"),
		rec(map[string]string{
			"supplement_key":  "magnesium",
			"supplement_name": "Magnesium",
			"aliases":         "Mg",
			"mechanisms":      "NMDA receptor modulation",
		}),
		rec(map[string]string{
			"supplement_key":  "vitamin_k2",
			"supplement_name": "Vitamin K2",
			"aliases":         "MK-7",
		}),
	}
}

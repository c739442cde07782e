package airtable

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/okian/rentscore/internal/domain/model"
)

// Default field names of the listings table.
const (
	DefaultRentField   = "Rent Price"
	DefaultNameField   = "Name"
	DefaultGuessSuffix = " Guess"
)

// Mapper converts raw records into prediction records.
type Mapper struct {
	RentField   string
	NameField   string
	GuessSuffix string
}

// NewMapper returns a Mapper with the default field names.
func NewMapper() Mapper {
	return Mapper{
		RentField:   DefaultRentField,
		NameField:   DefaultNameField,
		GuessSuffix: DefaultGuessSuffix,
	}
}

// Participants returns the sorted participant names found in guess columns
// across all records.
func (m Mapper) Participants(records []Record) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for field := range r.Fields {
			if name, ok := m.participant(field); ok {
				seen[name] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Map converts records, keyed by participant name. Unparseable values are
// treated as missing.
func (m Mapper) Map(records []Record) []model.PredictionRecord {
	out := make([]model.PredictionRecord, 0, len(records))
	for _, r := range records {
		pr := model.PredictionRecord{
			ListingID:  r.ID,
			ActualRent: number(r.Fields[m.RentField]),
			Guesses:    make(map[string]*float64),
		}
		if m.NameField != "" {
			if name, ok := r.Fields[m.NameField].(string); ok {
				pr.Name = name
			}
		}
		for field, v := range r.Fields {
			if name, ok := m.participant(field); ok {
				pr.Guesses[name] = number(v)
			}
		}
		out = append(out, pr)
	}
	return out
}

func (m Mapper) participant(field string) (string, bool) {
	if m.GuessSuffix == "" || !strings.HasSuffix(field, m.GuessSuffix) {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimSuffix(field, m.GuessSuffix))
	return name, name != ""
}

// number accepts JSON numbers and numeric strings such as "$2,450".
func number(v any) *float64 {
	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case float64:
		f = t
	case int:
		f = float64(t)
	case string:
		s := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(t))
		if s == "" {
			return nil
		}
		f, err = strconv.ParseFloat(s, 64)
	default:
		return nil
	}
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

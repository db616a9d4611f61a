// Package catalog provides read access to the scraped institution catalog.
// The ingestion pipeline owns the data; the bot never writes it.
package catalog

import (
	"github.com/rraild/vuzbot/internal/profile"
)

// Institution is one catalog record. Cost, seat counts and score thresholds
// are kept as the raw scraped text ("от 270", "от ?"); parsing happens at
// match time and tolerates dirty values.
type Institution struct {
	ID           int64
	Name         string
	City         string
	Cost         string
	BudgetPlaces string
	PaidPlaces   string
	BudgetScore  string
	PaidScore    string
	URL          string

	Specializations map[profile.Specialization]bool
}

// SpecializationLabels returns the display names of the categories this
// institution offers, in the fixed enumeration order.
func (i Institution) SpecializationLabels() []string {
	var out []string
	for _, spec := range profile.Specializations() {
		if i.Specializations[spec] {
			out = append(out, spec.Label())
		}
	}
	return out
}

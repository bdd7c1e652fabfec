package availability

import (
	"strings"

	"github.com/achildrenmile/oeradio-mcp/internal/callsign"
	"github.com/achildrenmile/oeradio-mcp/internal/store"
)

// Holder identifies the current license holder of a taken callsign. Hidden
// records expose the masked marker instead of a name.
type Holder struct {
	Callsign string `json:"callsign"`
	Name     string `json:"name"`
}

// Taken pairs a district with the existing holder of the suffix there.
type Taken struct {
	District int    `json:"district"`
	Holder   Holder `json:"holder"`
}

// Result is the per-suffix availability partition over the checked districts.
type Result struct {
	Suffix             string `json:"suffix"`
	Valid              bool   `json:"valid"`
	Reason             string `json:"reason,omitempty"`
	AvailableDistricts []int  `json:"available_districts"`
	TakenDistricts     []Taken `json:"taken_districts"`
}

// Checker answers which districts still have a given suffix free, against
// the local authoritative database only.
type Checker struct {
	store *store.Store
}

// NewChecker creates an availability checker over a store.
func NewChecker(st *store.Store) *Checker {
	return &Checker{store: st}
}

// Check partitions the requested districts (default: all nine regular ones)
// into available and taken for the given suffix. An invalid suffix shape
// short-circuits to "not available anywhere" without touching the store.
func (c *Checker) Check(rawSuffix string, districts []int) (Result, error) {
	suffix := strings.ToUpper(strings.TrimSpace(rawSuffix))
	res := Result{
		Suffix:             suffix,
		AvailableDistricts: []int{},
		TakenDistricts:     []Taken{},
	}

	if !callsign.ValidSuffixShape(suffix) {
		res.Reason = "invalid suffix: personal suffixes are 2-3 letters, club suffixes (leading X) 2-4 letters"
		return res, nil
	}
	res.Valid = true

	if len(districts) == 0 {
		districts = callsign.AvailabilityDistricts
	}

	sn, err := c.store.Snapshot()
	if err != nil {
		return Result{}, err
	}

	for _, district := range districts {
		cs := callsign.Make(district, suffix)
		if rec, ok := sn.Find(cs); ok {
			res.TakenDistricts = append(res.TakenDistricts, Taken{
				District: district,
				Holder: Holder{
					Callsign: rec.Callsign,
					Name:     rec.DisplayName(),
				},
			})
		} else {
			res.AvailableDistricts = append(res.AvailableDistricts, district)
		}
	}
	return res, nil
}

// CheckMultiple runs Check for each suffix, preserving input order.
func (c *Checker) CheckMultiple(suffixes []string, districts []int) ([]Result, error) {
	results := make([]Result, 0, len(suffixes))
	for _, suffix := range suffixes {
		res, err := c.Check(suffix, districts)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

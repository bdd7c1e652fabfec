package lookup

import "context"

// Provenance tags for lookup results.
const (
	SourceLocal    = "local"     // authoritative registry database
	SourceQRZ      = "qrz"       // QRZ.com XML API (credentials required)
	SourceHamQTH   = "hamqth"    // HamQTH public endpoint (anonymous, reduced data)
	SourceNotFound = "not-found" // exhausted all sources
)

// Entry is the owner information attached to a positive lookup. External
// sources fill only a subset of the fields.
type Entry struct {
	Callsign     string `json:"callsign"`
	Name         string `json:"name,omitempty"`
	QTH          string `json:"qth,omitempty"`
	PLZ          string `json:"plz,omitempty"`
	Address      string `json:"address,omitempty"`
	Country      string `json:"country,omitempty"`
	District     int    `json:"district,omitempty"`
	LicenseClass int    `json:"license_class,omitempty"`
	IsClub       bool   `json:"is_club,omitempty"`
	IsHidden     bool   `json:"is_hidden,omitempty"`
}

// Result is the terminal outcome of a lookup, annotated with provenance.
type Result struct {
	Callsign string `json:"callsign"`
	Exists   bool   `json:"exists"`
	Source   string `json:"source"`
	Entry    *Entry `json:"entry,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

// Outcome is what a single source reports for one attempt.
type Outcome struct {
	Exists bool
	Entry  *Entry
}

// Source is one step of the fallback chain. Sources are queried in order
// until one reports a hit; a source error converts into a miss and the
// chain proceeds.
type Source interface {
	// Name is the provenance tag attached to results from this source.
	Name() string
	// Available reports whether the source can be queried at all
	// (credential gating for external services).
	Available() bool
	// Attempt resolves a normalized callsign.
	Attempt(ctx context.Context, cs string) (Outcome, error)
}

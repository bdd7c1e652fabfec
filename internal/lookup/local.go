package lookup

import (
	"context"

	"github.com/achildrenmile/oeradio-mcp/internal/store"
)

// LocalSource resolves callsigns against the authoritative local database.
// It is always first in the chain and the only source whose failure is
// fatal: a missing database document means nothing can be answered.
type LocalSource struct {
	store *store.Store
}

// NewLocalSource creates the authoritative source over a store.
func NewLocalSource(st *store.Store) *LocalSource {
	return &LocalSource{store: st}
}

// Name implements Source.
func (s *LocalSource) Name() string { return SourceLocal }

// Available implements Source. The local database needs no credentials.
func (s *LocalSource) Available() bool { return true }

// Attempt implements Source. Returns store.ErrNoDatabase when the document
// is missing; the engine propagates that instead of falling through.
func (s *LocalSource) Attempt(ctx context.Context, cs string) (Outcome, error) {
	sn, err := s.store.Snapshot()
	if err != nil {
		return Outcome{}, err
	}

	rec, ok := sn.Find(cs)
	if !ok {
		return Outcome{}, nil
	}

	entry := &Entry{
		Callsign:     rec.Callsign,
		District:     rec.District,
		LicenseClass: rec.LicenseClass,
		IsClub:       rec.IsClub,
		IsHidden:     rec.IsHidden,
		Country:      "Austria",
	}
	// Hidden records confirm existence but expose no personal data.
	if !rec.IsHidden {
		entry.Name = rec.Name
		entry.QTH = rec.QTH
		entry.PLZ = rec.PLZ
		entry.Address = rec.Address
	}
	return Outcome{Exists: true, Entry: entry}, nil
}

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/achildrenmile/oeradio-mcp/internal/callsign"
	"github.com/achildrenmile/oeradio-mcp/internal/logging"
)

// ErrNoDatabase indicates the database document is missing entirely. This is
// a fatal serving condition, distinct from a callsign not being found: no
// query can be answered until the rebuild job has produced a document.
var ErrNoDatabase = errors.New("callsign database document not found; run the rebuild job")

const snapshotKey = "snapshot"

// BackupSuffix is appended to the document path for the rollback copy kept
// by Write.
const BackupSuffix = ".bak"

// Snapshot is one loaded, indexed database generation. Snapshots are
// immutable; a reload produces a fresh one.
type Snapshot struct {
	DB       *callsign.Database
	LoadedAt time.Time

	index map[string]int
}

// Find returns the record for an exact (already normalized) callsign.
func (sn *Snapshot) Find(cs string) (*callsign.Record, bool) {
	i, ok := sn.index[cs]
	if !ok {
		return nil, false
	}
	return &sn.DB.Records[i], true
}

// Store owns the persisted database document and a short-lived snapshot
// cache, so that serving requests do not re-read the file each time.
type Store struct {
	path  string
	cache *gocache.Cache
}

// New creates a store for the document at dataDir/fileName. snapshotTTL
// bounds how long a loaded snapshot is served before the file is re-read.
func New(dataDir, fileName string, snapshotTTL time.Duration) *Store {
	return &Store{
		path:  filepath.Join(dataDir, fileName),
		cache: gocache.New(snapshotTTL, 2*snapshotTTL),
	}
}

// Path returns the on-disk location of the database document.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns the current database generation, loading the document
// from disk if the cached snapshot has expired.
func (s *Store) Snapshot() (*Snapshot, error) {
	if cached, found := s.cache.Get(snapshotKey); found {
		return cached.(*Snapshot), nil
	}

	sn, err := s.load()
	if err != nil {
		return nil, err
	}
	s.cache.Set(snapshotKey, sn, gocache.DefaultExpiration)
	return sn, nil
}

// Invalidate drops the cached snapshot so the next access re-reads the file.
// Called after promotion so a new generation is visible immediately.
func (s *Store) Invalidate() {
	s.cache.Delete(snapshotKey)
}

func (s *Store) load() (*Snapshot, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoDatabase
		}
		return nil, fmt.Errorf("failed to open database document %s: %w", s.path, err)
	}
	defer f.Close()

	var db callsign.Database
	if err := json.NewDecoder(f).Decode(&db); err != nil {
		return nil, fmt.Errorf("failed to decode database document %s: %w", s.path, err)
	}

	sn := &Snapshot{
		DB:       &db,
		LoadedAt: time.Now(),
		index:    make(map[string]int, len(db.Records)),
	}
	for i := range db.Records {
		sn.index[db.Records[i].Callsign] = i
	}
	logging.Debug("store: loaded database %s (%d records, version %s)", s.path, len(db.Records), db.Version)
	return sn, nil
}

// Write persists a new database generation. The previous document, if any,
// is first copied aside as the rollback backup; the new document is written
// to a temp file and renamed into place so readers never see a partial file.
func (s *Store) Write(db *callsign.Database) error {
	if err := s.BackupCurrent(); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temp document %s: %w", tmp, err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(db); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode database document: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close temp document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace database document: %w", err)
	}

	s.Invalidate()
	logging.Notice("store: wrote database %s (%d records, version %s)", s.path, db.Count, db.Version)
	return nil
}

// BackupCurrent copies the current document to the backup path. A missing
// document (first build) is not an error.
func (s *Store) BackupCurrent() error {
	if err := copyFile(s.path, s.path+BackupSuffix); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to back up database document: %w", err)
	}
	return nil
}

// RestoreBackup puts the rollback copy back in place after a failed rebuild.
func (s *Store) RestoreBackup() error {
	if err := copyFile(s.path+BackupSuffix, s.path); err != nil {
		return fmt.Errorf("failed to restore database backup: %w", err)
	}
	s.Invalidate()
	logging.Notice("store: restored database backup at %s", s.path)
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

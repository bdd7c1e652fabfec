package lookup

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/achildrenmile/oeradio-mcp/internal/callsign"
	"github.com/achildrenmile/oeradio-mcp/internal/logging"
	"github.com/achildrenmile/oeradio-mcp/internal/store"
)

// queryRe is the sanity gate applied before any source is consulted:
// 3-10 characters, letters and digits only.
var queryRe = regexp.MustCompile(`^[A-Z0-9]{3,10}$`)

// staleRegistryWarning flags external hits on OE callsigns: the
// authoritative registry did not know the call, so the license may be
// expired, unlicensed, or the local database stale.
const staleRegistryWarning = "found via external source but absent from the Austrian registry database; " +
	"the license may be expired or the local database stale"

// Options modify a single lookup.
type Options struct {
	// LocalOnly restricts resolution to the authoritative database.
	LocalOnly bool
	// NoCache bypasses the result cache for this query (the fresh result
	// is still written back).
	NoCache bool
}

// Engine resolves callsigns through the ordered source chain with a shared
// TTL result cache. The engine owns its cache; nothing here is process
// global, so tests can build isolated engines freely.
type Engine struct {
	sources      []Source
	cache        ResultCache
	cacheEnabled bool

	externalTimeout time.Duration
	batchWorkers    int
}

// NewEngine builds an engine over the given chain. sources are tried in
// slice order; the first must be the local source for the provenance and
// warning rules to make sense.
func NewEngine(sources []Source, cache ResultCache, cacheEnabled bool, externalTimeout time.Duration, batchWorkers int) *Engine {
	if batchWorkers < 1 {
		batchWorkers = 1
	}
	return &Engine{
		sources:         sources,
		cache:           cache,
		cacheEnabled:    cacheEnabled && cache != nil,
		externalTimeout: externalTimeout,
		batchWorkers:    batchWorkers,
	}
}

// Normalize uppercases and trims a raw query string.
func Normalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Lookup resolves a raw query. The only error returned is the fatal
// missing-database condition; every other failure degrades into a
// warning-annotated miss and the chain proceeds.
func (e *Engine) Lookup(ctx context.Context, raw string, opts Options) (Result, error) {
	key := Normalize(raw)
	if !queryRe.MatchString(key) {
		// Invalid input never reaches the network and is not cached.
		return Result{
			Callsign: key,
			Exists:   false,
			Source:   SourceNotFound,
			Warning:  "invalid callsign format (expected 3-10 letters/digits)",
		}, nil
	}

	if e.cacheEnabled && !opts.NoCache {
		if res, found := e.cache.Get(ctx, key); found {
			logging.Debug("lookup: cache hit for %s (%s)", key, res.Source)
			return res, nil
		}
	}

	var warnings []string
	for _, src := range e.sources {
		if opts.LocalOnly && src.Name() != SourceLocal {
			continue
		}
		if !src.Available() {
			logging.Debug("lookup: source %s not configured, skipping", src.Name())
			continue
		}

		outcome, err := e.attempt(ctx, src, key)
		if err != nil {
			if errors.Is(err, store.ErrNoDatabase) {
				return Result{}, err
			}
			// External failure: note it and move down the chain.
			logging.Warn("lookup: source %s failed for %s: %v", src.Name(), key, err)
			warnings = append(warnings, src.Name()+" unavailable")
			continue
		}

		if outcome.Exists {
			if src.Name() != SourceLocal && strings.HasPrefix(key, callsign.Prefix) {
				warnings = append(warnings, staleRegistryWarning)
			}
			res := Result{
				Callsign: key,
				Exists:   true,
				Source:   src.Name(),
				Entry:    outcome.Entry,
				Warning:  strings.Join(warnings, "; "),
			}
			e.cacheResult(ctx, key, res)
			return res, nil
		}
	}

	res := Result{
		Callsign: key,
		Exists:   false,
		Source:   SourceNotFound,
		Warning:  strings.Join(warnings, "; "),
	}
	// Negative results are cached too, so persistent misses do not hammer
	// the external sources.
	e.cacheResult(ctx, key, res)
	return res, nil
}

// attempt runs one source, bounding external calls with the engine timeout.
func (e *Engine) attempt(ctx context.Context, src Source, key string) (Outcome, error) {
	if src.Name() == SourceLocal {
		return src.Attempt(ctx, key)
	}
	callCtx, cancel := context.WithTimeout(ctx, e.externalTimeout)
	defer cancel()
	return src.Attempt(callCtx, key)
}

func (e *Engine) cacheResult(ctx context.Context, key string, res Result) {
	if e.cacheEnabled {
		e.cache.Set(ctx, key, res)
	}
}

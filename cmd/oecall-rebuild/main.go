// Command oecall-rebuild fetches the extracted Austrian callsign listing,
// runs the parse/normalize/validate pipeline and, when validation reports
// zero errors, atomically promotes the new database document. On any
// failure the previous document is restored from its backup copy. The exit
// status tells the invoking scheduler how the run went:
//
//	0 - new database promoted
//	1 - fatal setup/fetch failure, previous database untouched
//	2 - validation errors, previous database restored
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"time"

	"golang.org/x/net/html/charset"

	"github.com/achildrenmile/oeradio-mcp/internal/callsign"
	"github.com/achildrenmile/oeradio-mcp/internal/config"
	"github.com/achildrenmile/oeradio-mcp/internal/db"
	"github.com/achildrenmile/oeradio-mcp/internal/logging"
	"github.com/achildrenmile/oeradio-mcp/internal/registry"
	"github.com/achildrenmile/oeradio-mcp/internal/store"
	"github.com/achildrenmile/oeradio-mcp/internal/version"
)

const legalNotice = "Data derived from the published Austrian amateur radio callsign listing. " +
	"For reference only; the official registry is authoritative."

// standRe extracts the publication date marker from the listing; it becomes
// the database version tag.
var standRe = regexp.MustCompile(`Stand[: ]\s*([0-9]{2})\.([0-9]{2})\.([0-9]{4})`)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	logging.SetLevel(logging.LevelInfo)
	logging.Notice("Starting %s rebuild %s", version.ProjectName, version.ProjectVersion)

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Crit("Failed to load configuration: %v", err)
		return 1
	}

	// An optional argument names a local extracted-text file; otherwise the
	// configured source URL is fetched.
	sourceID := cfg.RegistrySourceURL
	var reader io.ReadCloser
	if len(args) > 0 {
		sourceID = args[0]
		f, err := os.Open(args[0])
		if err != nil {
			logging.Crit("Failed to open source file %s: %v", args[0], err)
			return 1
		}
		reader = f
	} else {
		r, err := fetchSource(ctx, cfg.RegistrySourceURL)
		if err != nil {
			logging.Crit("Failed to fetch source listing: %v", err)
			return 1
		}
		reader = r
	}
	defer reader.Close()

	lines, err := readLines(reader)
	if err != nil {
		logging.Crit("Failed to read source listing: %v", err)
		return 1
	}
	logging.Info("Read %d lines from %s", len(lines), sourceID)

	database := buildDatabase(lines, sourceID)
	report := registry.ValidateDatabase(database)
	printReport(report)

	st := store.New(cfg.DataDir, cfg.DBFileName, cfg.SnapshotTTL)
	promoted := false
	status := 0

	if report.HasErrors() {
		// Nothing was written yet, so the previous document is untouched.
		logging.Error("Validation reported %d error(s); keeping previous database.", len(report.Errors))
		status = 2
	} else {
		if err := st.Write(database); err != nil {
			logging.Crit("Failed to write database document: %v", err)
			if restoreErr := st.RestoreBackup(); restoreErr != nil {
				logging.Error("Backup restore also failed: %v", restoreErr)
			}
			return 1
		}
		promoted = true
		logging.Notice("Database promoted: version %s, %d records.", database.Version, database.Count)
	}

	appendRevision(ctx, cfg, database, report, promoted)
	return status
}

// buildDatabase runs the offline pipeline: parse, normalize, dedupe, sort.
func buildDatabase(lines []string, sourceID string) *callsign.Database {
	rows := registry.ParseLines(lines)
	logging.Info("Parsed %d tentative rows.", len(rows))

	records := registry.SortEntries(registry.DeduplicateEntries(registry.NormalizeAll(rows)))
	logging.Info("Normalized to %d canonical records.", len(records))

	return &callsign.Database{
		Version: versionTag(lines),
		Source:  sourceID,
		BuiltAt: time.Now().UTC(),
		Count:   len(records),
		Notice:  legalNotice,
		Records: records,
	}
}

// versionTag derives the database version from the listing's publication
// date marker, falling back to the build date.
func versionTag(lines []string) string {
	for _, line := range lines {
		if m := standRe.FindStringSubmatch(line); m != nil {
			return fmt.Sprintf("%s-%s-%s", m[3], m[2], m[1])
		}
	}
	return time.Now().UTC().Format("2006-01-02")
}

// fetchSource downloads the extracted listing. The published files are
// ISO-8859-1; charset.NewReader converts to UTF-8 based on the content type.
func fetchSource(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent)

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("non-OK status fetching %s: %s", url, resp.Status)
	}

	decoded, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("failed to set up charset decoding: %w", err)
	}
	return &readCloser{Reader: decoded, closer: resp.Body}, nil
}

type readCloser struct {
	io.Reader
	closer io.Closer
}

func (r *readCloser) Close() error { return r.closer.Close() }

func readLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading listing: %w", err)
	}
	return lines, nil
}

func printReport(report *registry.Report) {
	for _, e := range report.Errors {
		logging.Error("validation: %s", e)
	}
	for _, w := range report.Warnings {
		logging.Warn("validation: %s", w)
	}
	logging.Notice("Validation: %d records, %d errors, %d warnings, %d hidden, %d clubs.",
		report.Stats.Total, len(report.Errors), len(report.Warnings),
		report.Stats.Hidden, report.Stats.Clubs)
	for district := 0; district <= 9; district++ {
		if count := report.Stats.ByDistrict[district]; count > 0 {
			logging.Info("  district %d: %d records", district, count)
		}
	}
}

// appendRevision records the rebuild attempt in the SQLite history. Failure
// here never changes the exit status; the history is diagnostics only.
func appendRevision(ctx context.Context, cfg *config.Config, database *callsign.Database, report *registry.Report, promoted bool) {
	dbClient, err := db.NewSQLiteClient(cfg.DataDir, store.RevisionDBFileName)
	if err != nil {
		logging.Warn("Revision history unavailable: %v", err)
		return
	}
	defer dbClient.Close()

	revLog, err := store.NewRevisionLog(dbClient)
	if err != nil {
		logging.Warn("Revision history unavailable: %v", err)
		return
	}
	rev := store.Revision{
		Version:      database.Version,
		Source:       database.Source,
		BuiltAt:      database.BuiltAt,
		RecordCount:  database.Count,
		ErrorCount:   len(report.Errors),
		WarningCount: len(report.Warnings),
		Promoted:     promoted,
	}
	if err := revLog.Append(ctx, rev); err != nil {
		logging.Warn("Failed to record revision: %v", err)
	}
}

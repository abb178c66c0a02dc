// Package report renders pass results as CSV for offline review.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/politeping/politeping/internal/monitor"
)

var header = []string{
	"timestamp",
	"url",
	"domain",
	"http_status",
	"verdict",
	"response_time_ms",
	"title",
	"matched_keyword",
	"error_message",
}

// Write streams verdicts as CSV, one record per endpoint, header first.
// Timestamps render as ISO-8601 UTC; a zero HTTP status renders empty.
func Write(w io.Writer, verdicts []monitor.HealthVerdict) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, v := range verdicts {
		if err := cw.Write(record(v)); err != nil {
			return fmt.Errorf("write csv record for %s: %w", v.Endpoint.URL, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// WriteFile writes the CSV to path, creating parent directories as needed.
func WriteFile(path string, verdicts []monitor.HealthVerdict) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := Write(f, verdicts); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}
	return nil
}

func record(v monitor.HealthVerdict) []string {
	status := ""
	if v.HTTPStatus != 0 {
		status = strconv.Itoa(v.HTTPStatus)
	}
	domain := ""
	if u, err := url.Parse(v.Endpoint.URL); err == nil {
		domain = u.Hostname()
	}
	return []string{
		v.Timestamp.UTC().Format(time.RFC3339),
		v.Endpoint.URL,
		domain,
		status,
		string(v.Tier),
		strconv.FormatInt(v.LatencyMs, 10),
		v.Title,
		v.MatchedKeyword,
		v.ErrorText,
	}
}

package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// SummaryEntry is one line appended to the summary sink: a timestamped,
// self-contained record of a single run's outcome. RunID distinguishes
// entries from concurrent CI jobs appending to a shared sink.
type SummaryEntry struct {
	RunID     string `json:"runId"`
	Timestamp string `json:"timestamp"`
	Errors    int    `json:"errors"`
	Warnings  int    `json:"warnings"`
	Failed    bool   `json:"failed"`
}

// WriteSummary appends one JSON line describing r to path, creating the
// file if it does not exist. It is the only I/O the report package
// performs, and only when a sink path is configured (§4.9).
func WriteSummary(path string, r Report) error {
	entry := SummaryEntry{
		RunID:     uuid.New().String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Errors:    len(r.Errors),
		Warnings:  len(r.Warnings),
		Failed:    r.Failed(),
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal summary entry: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open summary sink %q: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("write summary sink %q: %w", path, err)
	}
	return nil
}

package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CredentialReport is the per-credential line of a run summary.
type CredentialReport struct {
	ID         string  `json:"id"`
	Balance    float64 `json:"balance"`
	Status     string  `json:"status"`
	Healthy    bool    `json:"healthy"`
	HTTPStatus int     `json:"http_status,omitempty"`
	Action     string  `json:"action,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Report is the summary of one monitoring run. It is printed to stdout
// and persisted as the last-run snapshot in the state file.
type Report struct {
	RunID        string             `json:"run_id"`
	Timestamp    time.Time          `json:"timestamp"`
	Threshold    float64            `json:"threshold"`
	DryRun       bool               `json:"dry_run"`
	Total        int                `json:"total"`
	Healthy      int                `json:"healthy"`
	Depleted     int                `json:"depleted"`
	Errors       int                `json:"errors"`
	AllUnhealthy bool               `json:"all_unhealthy"`
	DurationMS   int64              `json:"duration_ms"`
	Credentials  []CredentialReport `json:"credentials"`
}

// Save writes the snapshot atomically via temp-and-rename.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// LoadReport reads a previously saved snapshot. Missing file yields
// (nil, nil) so callers can treat "never ran" uniformly.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

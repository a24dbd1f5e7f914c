package sessionlog

import "time"

// Report is the persisted output of one replay: the reboot tally plus the
// audit trail. ReportDigest is the JCS sha256 of the report with the
// digest field empty.
type Report struct {
	SchemaID        string         `json:"schema_id"`
	SchemaVersion   string         `json:"schema_version"`
	CreatedAt       time.Time      `json:"created_at"`
	ProducerVersion string         `json:"producer_version"`
	SessionID       string         `json:"session_id,omitempty"`
	WorkspaceHash   string         `json:"workspace_hash,omitempty"`
	LogPath         string         `json:"log_path"`
	PhantomPolicy   string         `json:"phantom_policy"`
	LinesTotal      int            `json:"lines_total"`
	LinesSkipped    int            `json:"lines_skipped,omitempty"`
	RequestsTotal   int            `json:"requests_total"`
	RebootCount     int            `json:"reboot_count"`
	Events          []EventVerdict `json:"events,omitempty"`
	Warnings        []string       `json:"warnings,omitempty"`
	ReportDigest    string         `json:"report_digest,omitempty"`
}

// EventVerdict is one audited compaction event.
type EventVerdict struct {
	RequestIndex   int    `json:"request_index"`
	Marker         string `json:"marker"`
	Timestamp      int64  `json:"timestamp,omitempty"`
	Phantom        bool   `json:"phantom,omitempty"`
	Fingerprint    string `json:"fingerprint,omitempty"`
	SummaryLength  int    `json:"summary_length,omitempty"`
	SummaryPreview string `json:"summary_preview,omitempty"`
	Reboot         bool   `json:"reboot"`
	Reason         string `json:"reason"`
}

// WindowRecord is one reboot window in window listings.
type WindowRecord struct {
	Window       int    `json:"window"`
	RequestStart int    `json:"request_start"`
	RequestEnd   int    `json:"request_end"`
	StartTS      int64  `json:"start_ts,omitempty"`
	EndTS        int64  `json:"end_ts,omitempty"`
	Fingerprint  string `json:"fingerprint,omitempty"`
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	coreerrors "github.com/chatrewind/chatrewind/core/errors"
	"github.com/chatrewind/chatrewind/core/fsx"
	"github.com/chatrewind/chatrewind/core/jcs"
	"github.com/chatrewind/chatrewind/core/reboot"
	"github.com/chatrewind/chatrewind/core/schema/v1/sessionlog"
)

type rebootsOutput struct {
	OK            bool                      `json:"ok"`
	SessionID     string                    `json:"session_id,omitempty"`
	WorkspaceHash string                    `json:"workspace_hash,omitempty"`
	LogPath       string                    `json:"log_path,omitempty"`
	PhantomPolicy string                    `json:"phantom_policy,omitempty"`
	LinesTotal    int                       `json:"lines_total,omitempty"`
	LinesSkipped  int                       `json:"lines_skipped,omitempty"`
	RequestsTotal int                       `json:"requests_total,omitempty"`
	RebootCount   int                       `json:"reboot_count"`
	Events        []sessionlog.EventVerdict `json:"events,omitempty"`
	Warnings      []string                  `json:"warnings,omitempty"`
	ReportPath    string                    `json:"report_path,omitempty"`
	ReportDigest  string                    `json:"report_digest,omitempty"`
	Error         string                    `json:"error,omitempty"`
	ErrorCode     string                    `json:"error_code,omitempty"`
	Hint          string                    `json:"hint,omitempty"`
}

func runReboots(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Replay a session mutation log and count context reboots: each counted reboot is a completed compaction whose summary fingerprint differs from the previous one.")
	}
	valueFlags := map[string]bool{"out": true}
	for name, required := range sessionValueFlags {
		valueFlags[name] = required
	}
	arguments = reorderInterspersedFlags(arguments, valueFlags)
	flagSet := flag.NewFlagSet("reboots", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	inputs := registerSessionFlags(flagSet)
	var out string
	var jsonOutput bool
	var helpFlag bool
	flagSet.StringVar(&out, "out", "", "write a report artifact to this path")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeRebootsOutput(jsonOutput, rebootsOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("Usage:")
		fmt.Println("  chatrewind reboots --log <session.jsonl> | --session <id> --workspace <hash> [--storage-root <dir>] [--config <path>] [--phantom-policy ignore|count-unique] [--out <report.json>] [--json] [--explain]")
		return exitOK
	}
	if len(flagSet.Args()) > 0 {
		return writeRebootsOutput(jsonOutput, rebootsOutput{Error: "unexpected positional arguments"}, exitInvalidInput)
	}

	outcome, err := replaySession(inputs)
	if err != nil {
		return writeRebootsOutput(jsonOutput, rebootsOutput{
			Error:     err.Error(),
			ErrorCode: coreerrors.CodeOf(err),
			Hint:      coreerrors.HintOf(err),
		}, exitCodeForError(err, exitInvalidInput))
	}

	output := rebootsOutput{
		OK:            true,
		SessionID:     outcome.sessionID,
		WorkspaceHash: outcome.workspaceHash,
		LogPath:       outcome.logPath,
		PhantomPolicy: string(outcome.policy),
		LinesTotal:    outcome.read.LinesTotal,
		LinesSkipped:  outcome.read.LinesSkipped,
		RequestsTotal: len(outcome.session.Requests),
		RebootCount:   outcome.tally.Count,
		Events:        eventVerdicts(outcome.tally.AuditTrail),
		Warnings:      outcome.warnings,
	}

	if strings.TrimSpace(out) != "" {
		digest, err := writeReport(strings.TrimSpace(out), output)
		if err != nil {
			return writeRebootsOutput(jsonOutput, rebootsOutput{
				Error: err.Error(),
				Hint:  coreerrors.HintOf(err),
			}, exitCodeForError(err, exitInternalFailure))
		}
		output.ReportPath = strings.TrimSpace(out)
		output.ReportDigest = digest
	}

	return writeRebootsOutput(jsonOutput, output, exitOK)
}

func eventVerdicts(trail []reboot.Verdict) []sessionlog.EventVerdict {
	verdicts := make([]sessionlog.EventVerdict, 0, len(trail))
	for _, verdict := range trail {
		verdicts = append(verdicts, sessionlog.EventVerdict{
			RequestIndex:   verdict.RequestIndex,
			Marker:         verdict.Marker,
			Timestamp:      verdict.Timestamp,
			Phantom:        verdict.Phantom,
			Fingerprint:    verdict.Fingerprint,
			SummaryLength:  len(verdict.SummaryText),
			SummaryPreview: summaryPreview(verdict.SummaryText),
			Reboot:         verdict.Reboot,
			Reason:         verdict.Reason,
		})
	}
	return verdicts
}

// writeReport persists the replay as a schema-versioned artifact. The
// digest is the JCS sha256 of the report with report_digest empty.
func writeReport(path string, output rebootsOutput) (string, error) {
	report := sessionlog.Report{
		SchemaID:        "chatrewind.sessionlog.report",
		SchemaVersion:   "1.0.0",
		CreatedAt:       time.Now().UTC(),
		ProducerVersion: version,
		SessionID:       output.SessionID,
		WorkspaceHash:   output.WorkspaceHash,
		LogPath:         output.LogPath,
		PhantomPolicy:   output.PhantomPolicy,
		LinesTotal:      output.LinesTotal,
		LinesSkipped:    output.LinesSkipped,
		RequestsTotal:   output.RequestsTotal,
		RebootCount:     output.RebootCount,
		Events:          output.Events,
		Warnings:        output.Warnings,
	}

	unsigned, err := json.Marshal(report)
	if err != nil {
		return "", coreerrors.Wrap(err, coreerrors.CategoryInternalFailure, "report_encode_failed", "", true)
	}
	digest, err := jcs.DigestJCS(unsigned)
	if err != nil {
		return "", coreerrors.Wrap(err, coreerrors.CategoryInternalFailure, "report_digest_failed", "", true)
	}
	report.ReportDigest = digest

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", coreerrors.Wrap(err, coreerrors.CategoryInternalFailure, "report_encode_failed", "", true)
	}
	encoded = append(encoded, '\n')
	if err := fsx.WriteFileAtomic(path, encoded, 0o600); err != nil {
		return "", coreerrors.Wrap(err, coreerrors.CategoryIOFailure, "report_write_failed", "", true)
	}
	return digest, nil
}

func writeRebootsOutput(jsonOutput bool, output rebootsOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if !output.OK {
		fmt.Printf("reboots error: %s\n", output.Error)
		return exitCode
	}
	fmt.Printf("reboots: %d (policy=%s requests=%d lines=%d skipped=%d)\n",
		output.RebootCount, output.PhantomPolicy, output.RequestsTotal, output.LinesTotal, output.LinesSkipped)
	fmt.Printf("log: %s\n", output.LogPath)
	for _, event := range output.Events {
		line := fmt.Sprintf("request=%d reboot=%t reason=%s", event.RequestIndex, event.Reboot, event.Reason)
		if event.Phantom {
			line += " phantom"
		} else {
			line += fmt.Sprintf(" fingerprint=%s", event.Fingerprint)
		}
		fmt.Println(line)
	}
	if output.ReportPath != "" {
		fmt.Printf("report: %s (%s)\n", output.ReportPath, output.ReportDigest)
	}
	if len(output.Warnings) > 0 {
		fmt.Printf("warnings: %s\n", strings.Join(output.Warnings, "; "))
	}
	return exitCode
}

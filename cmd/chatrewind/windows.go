package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	coreerrors "github.com/chatrewind/chatrewind/core/errors"
	"github.com/chatrewind/chatrewind/core/reboot"
	"github.com/chatrewind/chatrewind/core/schema/v1/sessionlog"
)

type windowsOutput struct {
	OK          bool                      `json:"ok"`
	LogPath     string                    `json:"log_path,omitempty"`
	RebootCount int                       `json:"reboot_count"`
	Windows     []sessionlog.WindowRecord `json:"windows,omitempty"`
	At          *windowAtOutput           `json:"at,omitempty"`
	Warnings    []string                  `json:"warnings,omitempty"`
	Error       string                    `json:"error,omitempty"`
	Hint        string                    `json:"hint,omitempty"`
}

type windowAtOutput struct {
	Timestamp int64 `json:"timestamp"`
	Window    int   `json:"window"`
}

func runWindows(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("List the reboot windows of a session: the request spans between counted context reboots. With --at, resolve which window a timestamp falls into.")
	}
	valueFlags := map[string]bool{"at": true}
	for name, required := range sessionValueFlags {
		valueFlags[name] = required
	}
	arguments = reorderInterspersedFlags(arguments, valueFlags)
	flagSet := flag.NewFlagSet("windows", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	inputs := registerSessionFlags(flagSet)
	var at int64
	var jsonOutput bool
	var helpFlag bool
	flagSet.Int64Var(&at, "at", 0, "resolve the window containing this epoch-millisecond timestamp")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeWindowsOutput(jsonOutput, windowsOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("Usage:")
		fmt.Println("  chatrewind windows --log <session.jsonl> | --session <id> --workspace <hash> [--at <epoch_ms>] [--json] [--explain]")
		return exitOK
	}
	if len(flagSet.Args()) > 0 {
		return writeWindowsOutput(jsonOutput, windowsOutput{Error: "unexpected positional arguments"}, exitInvalidInput)
	}

	outcome, err := replaySession(inputs)
	if err != nil {
		return writeWindowsOutput(jsonOutput, windowsOutput{
			Error: err.Error(),
			Hint:  coreerrors.HintOf(err),
		}, exitCodeForError(err, exitInvalidInput))
	}

	output := windowsOutput{
		OK:          true,
		LogPath:     outcome.logPath,
		RebootCount: outcome.tally.Count,
		Windows:     windowRecords(outcome.windows),
		Warnings:    outcome.warnings,
	}
	if at != 0 {
		output.At = &windowAtOutput{
			Timestamp: at,
			Window:    reboot.WindowForTimestamp(outcome.windows, at),
		}
	}
	return writeWindowsOutput(jsonOutput, output, exitOK)
}

func windowRecords(windows []reboot.Window) []sessionlog.WindowRecord {
	records := make([]sessionlog.WindowRecord, 0, len(windows))
	for _, window := range windows {
		records = append(records, sessionlog.WindowRecord{
			Window:       window.Number,
			RequestStart: window.StartIndex,
			RequestEnd:   window.EndIndex,
			StartTS:      window.StartTS,
			EndTS:        window.EndTS,
			Fingerprint:  window.Fingerprint,
		})
	}
	return records
}

func writeWindowsOutput(jsonOutput bool, output windowsOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if !output.OK {
		fmt.Printf("windows error: %s\n", output.Error)
		return exitCode
	}
	fmt.Printf("windows: %d (reboots=%d)\n", len(output.Windows), output.RebootCount)
	for _, window := range output.Windows {
		fmt.Printf("%d. requests %d..%d", window.Window, window.RequestStart, window.RequestEnd)
		if window.Fingerprint != "" {
			fmt.Printf(" after=%s", window.Fingerprint)
		}
		fmt.Println()
	}
	if output.At != nil {
		fmt.Printf("timestamp %d falls in window %d\n", output.At.Timestamp, output.At.Window)
	}
	if len(output.Warnings) > 0 {
		fmt.Printf("warnings: %s\n", strings.Join(output.Warnings, "; "))
	}
	return exitCode
}

package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chatrewind/chatrewind/core/correlate"
	coreerrors "github.com/chatrewind/chatrewind/core/errors"
)

type correlateOutput struct {
	OK         bool                  `json:"ok"`
	LogPath    string                `json:"log_path,omitempty"`
	StatePath  string                `json:"state_path,omitempty"`
	Operations int                   `json:"operations"`
	Windows    []correlate.WindowOps `json:"windows,omitempty"`
	Warnings   []string              `json:"warnings,omitempty"`
	Error      string                `json:"error,omitempty"`
	Hint       string                `json:"hint,omitempty"`
}

func runCorrelate(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Correlate the file operations recorded in the editing-session timeline with the reboot windows of the chat session, so each edit can be traced to the conversation span that produced it.")
	}
	valueFlags := map[string]bool{"state": true}
	for name, required := range sessionValueFlags {
		valueFlags[name] = required
	}
	arguments = reorderInterspersedFlags(arguments, valueFlags)
	flagSet := flag.NewFlagSet("correlate", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	inputs := registerSessionFlags(flagSet)
	var statePath string
	var jsonOutput bool
	var helpFlag bool
	flagSet.StringVar(&statePath, "state", "", "path to the editing-session state.json")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeCorrelateOutput(jsonOutput, correlateOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("Usage:")
		fmt.Println("  chatrewind correlate --session <id> --workspace <hash> [--state <state.json>] [--log <session.jsonl>] [--json] [--explain]")
		return exitOK
	}
	if len(flagSet.Args()) > 0 {
		return writeCorrelateOutput(jsonOutput, correlateOutput{Error: "unexpected positional arguments"}, exitInvalidInput)
	}

	outcome, err := replaySession(inputs)
	if err != nil {
		return writeCorrelateOutput(jsonOutput, correlateOutput{
			Error: err.Error(),
			Hint:  coreerrors.HintOf(err),
		}, exitCodeForError(err, exitInvalidInput))
	}

	statePath = strings.TrimSpace(statePath)
	if statePath == "" {
		statePath = outcome.editingState
	}
	if statePath == "" {
		return writeCorrelateOutput(jsonOutput, correlateOutput{
			Error: "editing state path unknown: pass --state or --session and --workspace",
		}, exitInvalidInput)
	}

	operations, err := correlate.LoadOperations(statePath)
	if err != nil {
		return writeCorrelateOutput(jsonOutput, correlateOutput{
			Error: err.Error(),
			Hint:  coreerrors.HintOf(err),
		}, exitCodeForError(err, exitInvalidInput))
	}

	grouped := correlate.Assign(operations, outcome.session, outcome.windows)
	return writeCorrelateOutput(jsonOutput, correlateOutput{
		OK:         true,
		LogPath:    outcome.logPath,
		StatePath:  statePath,
		Operations: len(operations),
		Windows:    grouped,
		Warnings:   outcome.warnings,
	}, exitOK)
}

func writeCorrelateOutput(jsonOutput bool, output correlateOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if !output.OK {
		fmt.Printf("correlate error: %s\n", output.Error)
		return exitCode
	}
	fmt.Printf("correlate: %d operations across %d windows\n", output.Operations, len(output.Windows))
	for _, window := range output.Windows {
		label := fmt.Sprintf("window %d", window.Window)
		if window.Window < 0 {
			label = "unmatched"
		}
		fmt.Printf("%s: %d operations, %d unique files\n", label, len(window.Operations), window.UniqueFiles)
		for _, operation := range window.Operations {
			fmt.Printf("   %s %s\n", operation.Type, operation.Path)
		}
	}
	if len(output.Warnings) > 0 {
		fmt.Printf("warnings: %s\n", strings.Join(output.Warnings, "; "))
	}
	return exitCode
}

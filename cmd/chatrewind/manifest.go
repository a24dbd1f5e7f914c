package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	coreerrors "github.com/chatrewind/chatrewind/core/errors"
	"github.com/chatrewind/chatrewind/core/manifest"
)

type manifestOutput struct {
	OK       bool                      `json:"ok"`
	LogPath  string                    `json:"log_path,omitempty"`
	Windows  []manifest.WindowManifest `json:"windows,omitempty"`
	Warnings []string                  `json:"warnings,omitempty"`
	Error    string                    `json:"error,omitempty"`
	Hint     string                    `json:"hint,omitempty"`
}

func runManifest(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Summarize each reboot window: request span, models in use, tool-call counts, terminal commands, and files touched.")
	}
	arguments = reorderInterspersedFlags(arguments, sessionValueFlags)
	flagSet := flag.NewFlagSet("manifest", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	inputs := registerSessionFlags(flagSet)
	var jsonOutput bool
	var helpFlag bool
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeManifestOutput(jsonOutput, manifestOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("Usage:")
		fmt.Println("  chatrewind manifest --log <session.jsonl> | --session <id> --workspace <hash> [--json] [--explain]")
		return exitOK
	}
	if len(flagSet.Args()) > 0 {
		return writeManifestOutput(jsonOutput, manifestOutput{Error: "unexpected positional arguments"}, exitInvalidInput)
	}

	outcome, err := replaySession(inputs)
	if err != nil {
		return writeManifestOutput(jsonOutput, manifestOutput{
			Error: err.Error(),
			Hint:  coreerrors.HintOf(err),
		}, exitCodeForError(err, exitInvalidInput))
	}

	return writeManifestOutput(jsonOutput, manifestOutput{
		OK:       true,
		LogPath:  outcome.logPath,
		Windows:  manifest.Build(outcome.session, outcome.windows),
		Warnings: outcome.warnings,
	}, exitOK)
}

func writeManifestOutput(jsonOutput bool, output manifestOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if !output.OK {
		fmt.Printf("manifest error: %s\n", output.Error)
		return exitCode
	}
	fmt.Printf("manifest: %d windows\n", len(output.Windows))
	for _, window := range output.Windows {
		fmt.Printf("window %d: requests %d..%d (%d)\n", window.Window, window.RequestStart, window.RequestEnd, window.Requests)
		if window.ModelStart != "" {
			models := window.ModelStart
			if window.ModelEnd != "" && window.ModelEnd != window.ModelStart {
				models += " -> " + window.ModelEnd
			}
			fmt.Printf("   models: %s\n", models)
		}
		for _, tool := range window.ToolCalls {
			fmt.Printf("   tool %s x%d\n", tool.ToolID, tool.Count)
		}
		for _, command := range window.Commands {
			fmt.Printf("   $ %s\n", command)
		}
		for _, file := range window.Files {
			fmt.Printf("   file %s\n", file)
		}
	}
	if len(output.Warnings) > 0 {
		fmt.Printf("warnings: %s\n", strings.Join(output.Warnings, "; "))
	}
	return exitCode
}

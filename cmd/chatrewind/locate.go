package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	coreerrors "github.com/chatrewind/chatrewind/core/errors"
	"github.com/chatrewind/chatrewind/core/locate"
)

type locateOutput struct {
	OK                 bool   `json:"ok"`
	SessionLog         string `json:"session_log,omitempty"`
	SessionLogExists   bool   `json:"session_log_exists"`
	EditingState       string `json:"editing_state,omitempty"`
	EditingStateExists bool   `json:"editing_state_exists"`
	Error              string `json:"error,omitempty"`
	Hint               string `json:"hint,omitempty"`
}

func runLocate(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Resolve a session id and workspace hash to the storage files the editor keeps for that session, and report whether each exists.")
	}
	arguments = reorderInterspersedFlags(arguments, map[string]bool{
		"session":      true,
		"workspace":    true,
		"storage-root": true,
	})
	flagSet := flag.NewFlagSet("locate", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var sessionID string
	var workspaceHash string
	var storageRoot string
	var jsonOutput bool
	var helpFlag bool
	flagSet.StringVar(&sessionID, "session", "", "chat session id")
	flagSet.StringVar(&workspaceHash, "workspace", "", "workspace storage hash")
	flagSet.StringVar(&storageRoot, "storage-root", "", "workspace storage root override")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeLocateOutput(jsonOutput, locateOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("Usage:")
		fmt.Println("  chatrewind locate --session <id> --workspace <hash> [--storage-root <dir>] [--json] [--explain]")
		return exitOK
	}
	if len(flagSet.Args()) > 0 {
		return writeLocateOutput(jsonOutput, locateOutput{Error: "unexpected positional arguments"}, exitInvalidInput)
	}

	paths, err := locate.Resolve(sessionID, workspaceHash, locate.Options{StorageRoot: storageRoot})
	if err != nil {
		return writeLocateOutput(jsonOutput, locateOutput{
			Error: err.Error(),
			Hint:  coreerrors.HintOf(err),
		}, exitCodeForError(err, exitInvalidInput))
	}

	return writeLocateOutput(jsonOutput, locateOutput{
		OK:                 true,
		SessionLog:         paths.SessionLog,
		SessionLogExists:   fileExists(paths.SessionLog),
		EditingState:       paths.EditingState,
		EditingStateExists: fileExists(paths.EditingState),
	}, exitOK)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func writeLocateOutput(jsonOutput bool, output locateOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if !output.OK {
		fmt.Printf("locate error: %s\n", output.Error)
		return exitCode
	}
	fmt.Printf("session log: %s (exists=%t)\n", output.SessionLog, output.SessionLogExists)
	fmt.Printf("editing state: %s (exists=%t)\n", output.EditingState, output.EditingStateExists)
	return exitCode
}

package main

import (
	"fmt"
	"os"
)

// version is stamped at release time via ldflags; default stays dev for local builds.
var version = "0.0.0-dev"

const (
	exitOK              = 0
	exitInternalFailure = 1
	exitInvalidInput    = 2
	exitVerifyFailed    = 3
	exitMissingInput    = 4
	exitMalformedInput  = 5
)

func main() {
	os.Exit(run(os.Args))
}

func run(arguments []string) int {
	correlationID := newCorrelationID(arguments)
	setCurrentCorrelationID(correlationID)
	exitCode := runDispatch(arguments)
	setCurrentCorrelationID("")
	return exitCode
}

func runDispatch(arguments []string) int {
	if len(arguments) < 2 {
		fmt.Println("chatrewind", version)
		return exitOK
	}
	if arguments[1] == "--explain" {
		return writeExplain("Chatrewind is an offline CLI that replays editor chat-session mutation logs to count context reboots, derive reboot windows, and correlate file edits with the conversation that produced them.")
	}

	switch arguments[1] {
	case "reboots":
		return runReboots(arguments[2:])
	case "windows":
		return runWindows(arguments[2:])
	case "correlate":
		return runCorrelate(arguments[2:])
	case "manifest":
		return runManifest(arguments[2:])
	case "inspect":
		return runInspect(arguments[2:])
	case "locate":
		return runLocate(arguments[2:])
	case "validate":
		return runValidate(arguments[2:])
	case "version", "--version", "-v":
		if hasExplainFlag(arguments[2:]) {
			return writeExplain("Print the CLI version.")
		}
		fmt.Println("chatrewind", version)
		return exitOK
	default:
		printUsage()
		return exitInvalidInput
	}
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  chatrewind reboots --log <session.jsonl> | --session <id> --workspace <hash> [--storage-root <dir>] [--config <path>] [--phantom-policy ignore|count-unique] [--out <report.json>] [--json] [--explain]")
	fmt.Println("  chatrewind windows --log <session.jsonl> | --session <id> --workspace <hash> [--at <epoch_ms>] [--json] [--explain]")
	fmt.Println("  chatrewind correlate --session <id> --workspace <hash> [--state <state.json>] [--log <session.jsonl>] [--json] [--explain]")
	fmt.Println("  chatrewind manifest --log <session.jsonl> | --session <id> --workspace <hash> [--json] [--explain]")
	fmt.Println("  chatrewind inspect --log <session.jsonl> | --session <id> --workspace <hash> [--requests] [--json] [--explain]")
	fmt.Println("  chatrewind locate --session <id> --workspace <hash> [--storage-root <dir>] [--json] [--explain]")
	fmt.Println("  chatrewind validate --log <session.jsonl> | --report <report.json> [--json] [--explain]")
	fmt.Println("  chatrewind version")
}

package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/chatrewind/chatrewind/core/schema/validate"
)

type validateOutput struct {
	OK       bool   `json:"ok"`
	Artifact string `json:"artifact,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Error    string `json:"error,omitempty"`
	Hint     string `json:"hint,omitempty"`
}

func runValidate(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Validate a session mutation log or an emitted report artifact against its JSON Schema.")
	}
	arguments = reorderInterspersedFlags(arguments, map[string]bool{
		"log":    true,
		"report": true,
	})
	flagSet := flag.NewFlagSet("validate", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	var logPath string
	var reportPath string
	var jsonOutput bool
	var helpFlag bool
	flagSet.StringVar(&logPath, "log", "", "path to a session mutation log (jsonl)")
	flagSet.StringVar(&reportPath, "report", "", "path to a report artifact")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeValidateOutput(jsonOutput, validateOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("Usage:")
		fmt.Println("  chatrewind validate --log <session.jsonl> | --report <report.json> [--json] [--explain]")
		return exitOK
	}
	if len(flagSet.Args()) > 0 {
		return writeValidateOutput(jsonOutput, validateOutput{Error: "unexpected positional arguments"}, exitInvalidInput)
	}

	logPath = strings.TrimSpace(logPath)
	reportPath = strings.TrimSpace(reportPath)
	switch {
	case logPath != "" && reportPath != "":
		return writeValidateOutput(jsonOutput, validateOutput{Error: "pass exactly one of --log or --report"}, exitInvalidInput)
	case logPath != "":
		if err := validate.ValidateMutationLogFile(logPath); err != nil {
			return writeValidateOutput(jsonOutput, validateOutput{
				Artifact: logPath,
				Kind:     "mutation_log",
				Error:    err.Error(),
			}, exitVerifyFailed)
		}
		return writeValidateOutput(jsonOutput, validateOutput{OK: true, Artifact: logPath, Kind: "mutation_log"}, exitOK)
	case reportPath != "":
		if err := validate.ValidateReportFile(reportPath); err != nil {
			return writeValidateOutput(jsonOutput, validateOutput{
				Artifact: reportPath,
				Kind:     "report",
				Error:    err.Error(),
			}, exitVerifyFailed)
		}
		return writeValidateOutput(jsonOutput, validateOutput{OK: true, Artifact: reportPath, Kind: "report"}, exitOK)
	default:
		return writeValidateOutput(jsonOutput, validateOutput{Error: "pass --log or --report"}, exitInvalidInput)
	}
}

func writeValidateOutput(jsonOutput bool, output validateOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if !output.OK {
		fmt.Printf("validate error: %s\n", output.Error)
		return exitCode
	}
	fmt.Printf("validate: ok (%s %s)\n", output.Kind, output.Artifact)
	return exitCode
}

package main

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	coreerrors "github.com/chatrewind/chatrewind/core/errors"
	"github.com/chatrewind/chatrewind/core/mutationlog"
	"github.com/chatrewind/chatrewind/core/reboot"
)

type inspectRequest struct {
	Index      int    `json:"index"`
	Present    bool   `json:"present"`
	RequestID  string `json:"request_id,omitempty"`
	Timestamp  int64  `json:"timestamp,omitempty"`
	ModelID    string `json:"model_id,omitempty"`
	Parts      int    `json:"parts"`
	HasResult  bool   `json:"has_result"`
	HasSummary bool   `json:"has_summary"`
	Marker     string `json:"marker,omitempty"`
}

type keyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

type inspectOutput struct {
	OK            bool             `json:"ok"`
	LogPath       string           `json:"log_path,omitempty"`
	LinesTotal    int              `json:"lines_total"`
	LinesSkipped  int              `json:"lines_skipped,omitempty"`
	Snapshots     int              `json:"snapshots"`
	Sets          int              `json:"sets"`
	ArrayReplaces int              `json:"array_replaces"`
	RequestsTotal int              `json:"requests_total"`
	RequestKeys   []keyCount       `json:"request_keys,omitempty"`
	Models        []string         `json:"models,omitempty"`
	Requests      []inspectRequest `json:"requests,omitempty"`
	Warnings      []string         `json:"warnings,omitempty"`
	Error         string           `json:"error,omitempty"`
	Hint          string           `json:"hint,omitempty"`
}

func runInspect(arguments []string) int {
	if hasExplainFlag(arguments) {
		return writeExplain("Probe the structure of a session mutation log: record-kind counts, request key frequency, models seen, and an optional per-request breakdown.")
	}
	arguments = reorderInterspersedFlags(arguments, sessionValueFlags)
	flagSet := flag.NewFlagSet("inspect", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)

	inputs := registerSessionFlags(flagSet)
	var withRequests bool
	var jsonOutput bool
	var helpFlag bool
	flagSet.BoolVar(&withRequests, "requests", false, "include a per-request breakdown")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit JSON output")
	flagSet.BoolVar(&helpFlag, "help", false, "show help")

	if err := flagSet.Parse(arguments); err != nil {
		return writeInspectOutput(jsonOutput, inspectOutput{Error: err.Error()}, exitInvalidInput)
	}
	if helpFlag {
		fmt.Println("Usage:")
		fmt.Println("  chatrewind inspect --log <session.jsonl> | --session <id> --workspace <hash> [--requests] [--json] [--explain]")
		return exitOK
	}
	if len(flagSet.Args()) > 0 {
		return writeInspectOutput(jsonOutput, inspectOutput{Error: "unexpected positional arguments"}, exitInvalidInput)
	}

	outcome, err := replaySession(inputs)
	if err != nil {
		return writeInspectOutput(jsonOutput, inspectOutput{
			Error: err.Error(),
			Hint:  coreerrors.HintOf(err),
		}, exitCodeForError(err, exitInvalidInput))
	}

	output := inspectOutput{
		OK:            true,
		LogPath:       outcome.logPath,
		LinesTotal:    outcome.read.LinesTotal,
		LinesSkipped:  outcome.read.LinesSkipped,
		RequestsTotal: len(outcome.session.Requests),
		Warnings:      outcome.warnings,
	}

	for _, record := range outcome.read.Records {
		switch record.Kind {
		case mutationlog.KindSnapshot:
			output.Snapshots++
		case mutationlog.KindSet:
			output.Sets++
		case mutationlog.KindArrayReplace:
			output.ArrayReplaces++
		}
	}

	keyCounts := map[string]int{}
	modelsSeen := map[string]struct{}{}
	vocabulary := reboot.DefaultVocabulary()
	for _, request := range outcome.session.Requests {
		for key := range request.Raw {
			keyCounts[key]++
		}
		if request.ModelID != "" {
			modelsSeen[request.ModelID] = struct{}{}
		}
		if withRequests {
			entry := inspectRequest{
				Index:      request.Index,
				Present:    request.Present,
				RequestID:  request.RequestID,
				Timestamp:  request.Timestamp,
				ModelID:    request.ModelID,
				Parts:      len(request.ResponseParts),
				HasResult:  request.Result.Present,
				HasSummary: request.Result.Summary != nil,
			}
			if marker, found := vocabulary.FindCompletedMarker(request); found {
				entry.Marker = marker
			}
			output.Requests = append(output.Requests, entry)
		}
	}
	output.RequestKeys = sortedKeyCounts(keyCounts)
	output.Models = sortedStrings(modelsSeen)

	return writeInspectOutput(jsonOutput, output, exitOK)
}

func sortedKeyCounts(counts map[string]int) []keyCount {
	out := make([]keyCount, 0, len(counts))
	for key, count := range counts {
		out = append(out, keyCount{Key: key, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Key < out[j].Key
		}
		return out[i].Count > out[j].Count
	})
	return out
}

func sortedStrings(values map[string]struct{}) []string {
	out := make([]string, 0, len(values))
	for value := range values {
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}

func writeInspectOutput(jsonOutput bool, output inspectOutput, exitCode int) int {
	if jsonOutput {
		return writeJSONOutput(output, exitCode)
	}
	if !output.OK {
		fmt.Printf("inspect error: %s\n", output.Error)
		return exitCode
	}
	fmt.Printf("inspect: lines=%d skipped=%d snapshots=%d sets=%d array_replaces=%d requests=%d\n",
		output.LinesTotal, output.LinesSkipped, output.Snapshots, output.Sets, output.ArrayReplaces, output.RequestsTotal)
	fmt.Printf("log: %s\n", output.LogPath)
	if len(output.Models) > 0 {
		fmt.Printf("models: %s\n", strings.Join(output.Models, ", "))
	}
	for _, key := range output.RequestKeys {
		fmt.Printf("   key %s x%d\n", key.Key, key.Count)
	}
	for _, request := range output.Requests {
		line := fmt.Sprintf("%d. present=%t parts=%d result=%t summary=%t", request.Index, request.Present, request.Parts, request.HasResult, request.HasSummary)
		if request.Marker != "" {
			line += fmt.Sprintf(" marker=%q", request.Marker)
		}
		fmt.Println(line)
	}
	if len(output.Warnings) > 0 {
		fmt.Printf("warnings: %s\n", strings.Join(output.Warnings, "; "))
	}
	return exitCode
}

// Package manifest reconstructs per-window agent activity from a
// materialized session: models in play, tool-call breakdowns, shell
// commands, and files referenced by tool invocations.
package manifest

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/chatrewind/chatrewind/core/materialize"
	"github.com/chatrewind/chatrewind/core/reboot"
)

const (
	toolInvocationKind = "toolInvocationSerialized"
	terminalToolID     = "run_in_terminal"
)

type ToolCount struct {
	ToolID string `json:"tool_id"`
	Count  int    `json:"count"`
}

// WindowManifest is the activity summary for one reboot window.
type WindowManifest struct {
	Window       int         `json:"window"`
	RequestStart int         `json:"request_start"`
	RequestEnd   int         `json:"request_end"`
	StartTS      int64       `json:"start_ts,omitempty"`
	EndTS        int64       `json:"end_ts,omitempty"`
	Requests     int         `json:"requests"`
	ModelStart   string      `json:"model_start,omitempty"`
	ModelEnd     string      `json:"model_end,omitempty"`
	ToolCalls    []ToolCount `json:"tool_calls,omitempty"`
	Commands     []string    `json:"commands,omitempty"`
	Files        []string    `json:"files,omitempty"`
	ContentRefs  []string    `json:"content_refs,omitempty"`
}

// Build summarizes each reboot window. Windows and session must come from
// the same replay.
func Build(session *materialize.Session, windows []reboot.Window) []WindowManifest {
	manifests := make([]WindowManifest, 0, len(windows))
	for _, window := range windows {
		manifests = append(manifests, buildWindow(session, window))
	}
	return manifests
}

func buildWindow(session *materialize.Session, window reboot.Window) WindowManifest {
	summary := WindowManifest{
		Window:       window.Number,
		RequestStart: window.StartIndex,
		RequestEnd:   window.EndIndex,
		StartTS:      window.StartTS,
		EndTS:        window.EndTS,
	}

	toolCounts := map[string]int{}
	seenFiles := map[string]struct{}{}
	seenRefs := map[string]struct{}{}

	for index := window.StartIndex; index <= window.EndIndex && index < len(session.Requests); index++ {
		request := session.Requests[index]
		if !request.Present {
			continue
		}
		summary.Requests++
		if model := shortModel(request.ModelID); model != "" {
			if summary.ModelStart == "" {
				summary.ModelStart = model
			}
			summary.ModelEnd = model
		}
		for _, ref := range request.ContentRefs {
			if _, ok := seenRefs[ref]; ok {
				continue
			}
			seenRefs[ref] = struct{}{}
			summary.ContentRefs = append(summary.ContentRefs, ref)
		}
		for _, part := range request.ResponseParts {
			if part.Kind != toolInvocationKind {
				continue
			}
			if part.ToolID != "" {
				toolCounts[part.ToolID]++
			}
			if part.ToolID == terminalToolID && part.TerminalInput != "" {
				summary.Commands = append(summary.Commands, part.TerminalInput)
			}
			if path := extractFilePath(part.InvocationMessage); path != "" {
				if _, ok := seenFiles[path]; !ok {
					seenFiles[path] = struct{}{}
					summary.Files = append(summary.Files, path)
				}
			}
		}
	}

	summary.ToolCalls = sortedToolCounts(toolCounts)
	return summary
}

func sortedToolCounts(counts map[string]int) []ToolCount {
	if len(counts) == 0 {
		return nil
	}
	sorted := make([]ToolCount, 0, len(counts))
	for toolID, count := range counts {
		sorted = append(sorted, ToolCount{ToolID: toolID, Count: count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Count != sorted[j].Count {
			return sorted[i].Count > sorted[j].Count
		}
		return sorted[i].ToolID < sorted[j].ToolID
	})
	return sorted
}

var (
	markdownFileLink = regexp.MustCompile(`\]\(file:///([^)]+)\)`)
	bareFileLink     = regexp.MustCompile(`file:///([^\s'"]+)`)
)

// extractFilePath pulls a file path out of a tool invocation message.
// Invocation messages carry markdown links like [a.go](file:///c%3A/work/a.go);
// a bare file URL is the fallback.
func extractFilePath(message string) string {
	if message == "" {
		return ""
	}
	match := markdownFileLink.FindStringSubmatch(message)
	if match == nil {
		match = bareFileLink.FindStringSubmatch(message)
	}
	if match == nil {
		return ""
	}
	decoded, err := url.PathUnescape(match[1])
	if err != nil {
		return match[1]
	}
	return decoded
}

// shortModel trims the provider prefix: "copilot/claude-sonnet-4.6" ->
// "claude-sonnet-4.6".
func shortModel(modelID string) string {
	if modelID == "" {
		return ""
	}
	if slash := strings.LastIndex(modelID, "/"); slash >= 0 {
		return modelID[slash+1:]
	}
	return modelID
}

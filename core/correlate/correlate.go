// Package correlate maps file operations recorded in the editing-session
// state file onto the reboot windows derived from the chat session log.
package correlate

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	coreerrors "github.com/chatrewind/chatrewind/core/errors"
	"github.com/chatrewind/chatrewind/core/materialize"
	"github.com/chatrewind/chatrewind/core/reboot"
)

// Operation is one file operation from the editing timeline, resolved to a
// request timestamp and assigned to a reboot window. Window -1 means the
// operation's requestId never appears in the session log.
type Operation struct {
	Type      string `json:"type"`
	Path      string `json:"path"`
	RequestID string `json:"request_id"`
	Epoch     int64  `json:"epoch,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Window    int    `json:"window"`
}

// WindowOps groups operations per window, de-duplicated to unique
// (type, path) pairs in first-appearance order.
type WindowOps struct {
	Window      int         `json:"window"`
	Operations  []Operation `json:"operations"`
	UniqueFiles int         `json:"unique_files"`
}

type editingState struct {
	Timeline struct {
		Operations []editingOperation `json:"operations"`
	} `json:"timeline"`
}

type editingOperation struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId"`
	Epoch     int64           `json:"epoch"`
	URI       json.RawMessage `json:"uri"`
}

// LoadOperations parses timeline.operations from a chatEditingSessions
// state.json. The editing state is optional storage: a missing file is a
// missing_input error the caller may choose to tolerate.
func LoadOperations(path string) ([]Operation, error) {
	// #nosec G304 -- editing state path is explicit local user input.
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, coreerrors.Wrap(
				fmt.Errorf("editing state not found: %s", path),
				coreerrors.CategoryMissingInput, "editing_state_missing",
				"the session has no chatEditingSessions entry", true,
			)
		}
		return nil, coreerrors.Wrap(fmt.Errorf("read editing state: %w", err), coreerrors.CategoryIOFailure, "editing_state_read_failed", "", true)
	}
	var state editingState
	if err := json.Unmarshal(content, &state); err != nil {
		return nil, coreerrors.Wrap(fmt.Errorf("parse editing state: %w", err), coreerrors.CategoryMalformedRecord, "editing_state_undecodable", "", true)
	}

	operations := make([]Operation, 0, len(state.Timeline.Operations))
	for _, raw := range state.Timeline.Operations {
		operations = append(operations, Operation{
			Type:      raw.Type,
			Path:      decodeURIPath(raw.URI),
			RequestID: raw.RequestID,
			Epoch:     raw.Epoch,
			Window:    -1,
		})
	}
	return operations, nil
}

// decodeURIPath accepts both the object form ({fsPath, path}) and a bare
// string URI, both of which occur in editing state files.
func decodeURIPath(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var object struct {
		FSPath string `json:"fsPath"`
		Path   string `json:"path"`
	}
	if err := json.Unmarshal(raw, &object); err == nil {
		if object.FSPath != "" {
			return object.FSPath
		}
		if object.Path != "" {
			return object.Path
		}
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return ""
}

// Assign resolves each operation's timestamp through the session's
// requestId map and places it in a reboot window. Returns the per-window
// groups in window order, unknown (-1) last.
func Assign(operations []Operation, session *materialize.Session, windows []reboot.Window) []WindowOps {
	timestamps := make(map[string]int64, len(session.Requests))
	for _, request := range session.Requests {
		if request.RequestID != "" && request.Timestamp != 0 {
			timestamps[request.RequestID] = request.Timestamp
		}
	}

	grouped := map[int][]Operation{}
	for _, operation := range operations {
		if timestamp, ok := timestamps[operation.RequestID]; ok {
			operation.Timestamp = timestamp
			operation.Window = reboot.WindowForTimestamp(windows, timestamp)
		}
		grouped[operation.Window] = append(grouped[operation.Window], operation)
	}

	numbers := make([]int, 0, len(grouped))
	for number := range grouped {
		numbers = append(numbers, number)
	}
	sort.Ints(numbers)
	// Unknown window sorts first as -1; move it to the end for reporting.
	if len(numbers) > 0 && numbers[0] == -1 {
		numbers = append(numbers[1:], -1)
	}

	result := make([]WindowOps, 0, len(numbers))
	for _, number := range numbers {
		operations := dedupeOperations(grouped[number])
		result = append(result, WindowOps{
			Window:      number,
			Operations:  operations,
			UniqueFiles: countUniqueFiles(operations),
		})
	}
	return result
}

func dedupeOperations(operations []Operation) []Operation {
	type opKey struct{ opType, path string }
	seen := map[opKey]struct{}{}
	unique := make([]Operation, 0, len(operations))
	for _, operation := range operations {
		key := opKey{operation.Type, operation.Path}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, operation)
	}
	return unique
}

func countUniqueFiles(operations []Operation) int {
	seen := map[string]struct{}{}
	for _, operation := range operations {
		if operation.Path != "" {
			seen[operation.Path] = struct{}{}
		}
	}
	return len(seen)
}

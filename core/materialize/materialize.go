// Package materialize replays an ordered mutation-record stream into a
// read-only view of a chat session. The replay owns the tree exclusively;
// consumers only ever see the typed Session view built after the last
// record is applied.
package materialize

import (
	"fmt"

	"github.com/chatrewind/chatrewind/core/mutationlog"
)

// Replay applies every record in stream order against an initially empty
// tree. The final value at any path is the value of the last record that
// touched that exact path: snapshots replace the root, sets overwrite at
// path, array-replace swaps the full array value. ArrayReplace never
// merges element-wise; a replacement array carrying the same response part
// several times survives replay verbatim and is collapsed later by the
// per-request classifier.
func Replay(records []mutationlog.Record) *Session {
	var root any
	var warnings []string

	for position, record := range records {
		switch record.Kind {
		case mutationlog.KindSnapshot:
			root = record.Value
		case mutationlog.KindSet:
			setAtPath(&root, record.Path, record.Value)
		case mutationlog.KindArrayReplace:
			replacement, ok := record.Value.([]any)
			if !ok {
				warnings = append(warnings, fmt.Sprintf("record %d: array_replace value is %T, not an array; skipped", position+1, record.Value))
				continue
			}
			setAtPath(&root, record.Path, replacement)
		}
	}

	return buildSession(root, warnings)
}

// setAtPath walks the tree creating intermediate containers as needed and
// overwrites whatever exists at the destination. A non-container found
// mid-path is replaced by a fresh container: later records win.
func setAtPath(node *any, path []mutationlog.Segment, value any) {
	if len(path) == 0 {
		*node = value
		return
	}
	segment := path[0]
	if segment.IsIndex {
		array, ok := (*node).([]any)
		if !ok {
			array = []any{}
		}
		for len(array) <= segment.Index {
			array = append(array, nil)
		}
		setAtPath(&array[segment.Index], path[1:], value)
		*node = array
		return
	}
	object, ok := (*node).(map[string]any)
	if !ok {
		object = map[string]any{}
	}
	child := object[segment.Key]
	setAtPath(&child, path[1:], value)
	object[segment.Key] = child
	*node = object
}

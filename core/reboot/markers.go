// Package reboot detects context-compaction cycles in a materialized chat
// session and counts the genuine ones: completed compactions whose stored
// summary differs from the immediately preceding one.
package reboot

import (
	"strings"

	"github.com/chatrewind/chatrewind/core/materialize"
)

// Completed-compaction marker literals. The vocabulary spans the marker
// migration: logs written across the transition carry both eras.
const (
	MarkerSummarizedLegacy = "Summarized conversation history"
	MarkerCompactedCurrent = "Compacted conversation"
)

// progressTaskKindFragment matches both the legacy progressTask part kind
// and its serialized successor.
const progressTaskKindFragment = "progressTask"

// Vocabulary is the completed-marker allow-list. Extra literals come from
// project config; the built-in pair is always recognized.
type Vocabulary struct {
	completed map[string]struct{}
}

func DefaultVocabulary() Vocabulary {
	return NewVocabulary(nil)
}

func NewVocabulary(extraCompleted []string) Vocabulary {
	vocabulary := Vocabulary{completed: map[string]struct{}{
		MarkerSummarizedLegacy: {},
		MarkerCompactedCurrent: {},
	}}
	for _, marker := range extraCompleted {
		trimmed := strings.TrimSpace(marker)
		if trimmed == "" {
			continue
		}
		vocabulary.completed[trimmed] = struct{}{}
	}
	return vocabulary
}

// IsCompleted reports whether text is a completed-compaction marker.
// In-progress and aborted forms end in continuation punctuation
// ("Summarizing conversation history...") and are excluded even when a
// configured allow-list entry would otherwise match.
func (v Vocabulary) IsCompleted(text string) bool {
	if isInProgress(text) {
		return false
	}
	_, ok := v.completed[text]
	return ok
}

func isInProgress(text string) bool {
	trimmed := strings.TrimRight(text, " ")
	return strings.HasSuffix(trimmed, "...") || strings.HasSuffix(trimmed, "…")
}

// FindCompletedMarker scans a request's response parts in order and returns
// the first completed-compaction marker, if any. First match wins: the
// array-replace duplication artifact can leave the same marker part in a
// request several times, and one request denotes at most one compaction.
func (v Vocabulary) FindCompletedMarker(request materialize.Request) (string, bool) {
	for _, part := range request.ResponseParts {
		if !strings.Contains(part.Kind, progressTaskKindFragment) {
			continue
		}
		if v.IsCompleted(part.ContentValue) {
			return part.ContentValue, true
		}
	}
	return "", false
}

package reboot

import (
	"strings"
	"testing"

	"github.com/chatrewind/chatrewind/core/materialize"
)

func requestWithParts(index int, parts ...materialize.ResponsePart) materialize.Request {
	return materialize.Request{Index: index, Present: true, ResponseParts: parts}
}

func progressPart(text string) materialize.ResponsePart {
	return materialize.ResponsePart{Kind: "progressTaskSerialized", ContentValue: text}
}

func withSummary(request materialize.Request, text string) materialize.Request {
	request.Result = materialize.Result{Present: true, Summary: &materialize.Summary{Text: text}}
	return request
}

func TestVocabularyBothEras(t *testing.T) {
	vocabulary := DefaultVocabulary()
	if !vocabulary.IsCompleted(MarkerSummarizedLegacy) {
		t.Fatalf("legacy completed marker must be recognized")
	}
	if !vocabulary.IsCompleted(MarkerCompactedCurrent) {
		t.Fatalf("current completed marker must be recognized")
	}
	for _, inProgress := range []string{
		"Summarizing conversation history...",
		"Compacting conversation...",
		"Compacted conversation…",
		"Compacted conversation... ",
	} {
		if vocabulary.IsCompleted(inProgress) {
			t.Fatalf("in-progress marker %q must never count", inProgress)
		}
	}
	if vocabulary.IsCompleted("some unrelated progress text") {
		t.Fatalf("unlisted text must not count")
	}
}

func TestVocabularyExtraMarkers(t *testing.T) {
	vocabulary := NewVocabulary([]string{" Condensed history ", ""})
	if !vocabulary.IsCompleted("Condensed history") {
		t.Fatalf("configured marker must be recognized")
	}
	if vocabulary.IsCompleted("Condensed history...") {
		t.Fatalf("continuation punctuation overrides the allow-list")
	}
}

func TestFindCompletedMarkerFirstMatchWins(t *testing.T) {
	vocabulary := DefaultVocabulary()
	request := requestWithParts(5,
		materialize.ResponsePart{Kind: "markdownContent", ContentValue: MarkerCompactedCurrent},
		progressPart("Compacting conversation..."),
		progressPart(MarkerSummarizedLegacy),
		progressPart(MarkerCompactedCurrent),
	)
	marker, found := vocabulary.FindCompletedMarker(request)
	if !found {
		t.Fatalf("expected marker")
	}
	if marker != MarkerSummarizedLegacy {
		t.Fatalf("first completed match must win, got %q", marker)
	}
}

func TestFindCompletedMarkerIgnoresNonProgressKinds(t *testing.T) {
	vocabulary := DefaultVocabulary()
	request := requestWithParts(0,
		materialize.ResponsePart{Kind: "markdownContent", ContentValue: MarkerCompactedCurrent},
	)
	if _, found := vocabulary.FindCompletedMarker(request); found {
		t.Fatalf("marker text outside progressTask parts must not match")
	}
}

func TestClassifyDedupsDuplicatedMarkers(t *testing.T) {
	// Four identical completed markers in one request simulate the
	// array-replace duplication artifact: exactly one event, never four.
	request := withSummary(requestWithParts(7,
		progressPart(MarkerCompactedCurrent),
		progressPart(MarkerCompactedCurrent),
		progressPart(MarkerCompactedCurrent),
		progressPart(MarkerCompactedCurrent),
	), "summary text")
	session := &materialize.Session{Requests: []materialize.Request{request}}

	events, warnings := Classify(session, DefaultVocabulary())
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event, got %d", len(events))
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if events[0].RequestIndex != 7 || events[0].Phantom {
		t.Fatalf("unexpected event: %+v", events[0])
	}
	if events[0].Fingerprint != Fingerprint("summary text") {
		t.Fatalf("fingerprint mismatch")
	}
}

func TestClassifyPhantomWhenSummaryAbsent(t *testing.T) {
	request := requestWithParts(3, progressPart(MarkerSummarizedLegacy))
	request.Result = materialize.Result{Present: true}
	session := &materialize.Session{Requests: []materialize.Request{request}}

	events, warnings := Classify(session, DefaultVocabulary())
	if len(events) != 1 || !events[0].Phantom {
		t.Fatalf("expected one phantom event, got %+v", events)
	}
	if events[0].Fingerprint != "" {
		t.Fatalf("phantom must carry no fingerprint")
	}
	if len(warnings) != 0 {
		t.Fatalf("missing summary alone is not a structural ambiguity: %v", warnings)
	}
}

func TestClassifyAmbiguousResultIsPhantomWithWarning(t *testing.T) {
	request := requestWithParts(4, progressPart(MarkerCompactedCurrent))
	request.Result = materialize.Result{Present: true, Ambiguous: true}
	session := &materialize.Session{Requests: []materialize.Request{request}}

	events, warnings := Classify(session, DefaultVocabulary())
	if len(events) != 1 || !events[0].Phantom {
		t.Fatalf("expected phantom event, got %+v", events)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "request 4") {
		t.Fatalf("expected structural ambiguity warning, got %v", warnings)
	}
}

func TestClassifyEmptySummaryTextFingerprints(t *testing.T) {
	request := withSummary(requestWithParts(2, progressPart(MarkerCompactedCurrent)), "")
	session := &materialize.Session{Requests: []materialize.Request{request}}

	events, _ := Classify(session, DefaultVocabulary())
	if len(events) != 1 || events[0].Phantom {
		t.Fatalf("empty text is not a phantom: %+v", events)
	}
	if events[0].Fingerprint != Fingerprint("") {
		t.Fatalf("expected fingerprint of empty string")
	}
}

func TestClassifySkipsInProgressOnlyRequests(t *testing.T) {
	session := &materialize.Session{Requests: []materialize.Request{
		requestWithParts(0, progressPart("Compacting conversation...")),
		requestWithParts(1),
	}}
	events, _ := Classify(session, DefaultVocabulary())
	if len(events) != 0 {
		t.Fatalf("expected no events, got %+v", events)
	}
}

func TestFingerprintStable(t *testing.T) {
	// MD5 of "hello" is fixed for all time; the report format depends on it.
	if got := Fingerprint("hello"); got != "5d41402abc4b2a76b9719d911017c592" {
		t.Fatalf("fingerprint drift: %s", got)
	}
	if Fingerprint("a") == Fingerprint("b") {
		t.Fatalf("distinct texts must fingerprint differently")
	}
}

package reboot

import "testing"

func realEvent(index int, summary string) CompactionEvent {
	return CompactionEvent{
		RequestIndex: index,
		Marker:       MarkerCompactedCurrent,
		SummaryText:  summary,
		Fingerprint:  Fingerprint(summary),
	}
}

func phantomEvent(index int) CompactionEvent {
	return CompactionEvent{RequestIndex: index, Marker: MarkerSummarizedLegacy, Phantom: true}
}

func TestCountConsecutiveDistinct(t *testing.T) {
	tally := Count([]CompactionEvent{
		realEvent(4, "first summary"),
		realEvent(5, "second summary"),
	}, PhantomIgnore)
	if tally.Count != 2 {
		t.Fatalf("two distinct adjacent summaries must both count, got %d", tally.Count)
	}
	for _, verdict := range tally.AuditTrail {
		if !verdict.Reboot || verdict.Reason != ReasonNewFingerprint {
			t.Fatalf("unexpected verdict: %+v", verdict)
		}
	}
}

func TestCountSameHashCollapse(t *testing.T) {
	tally := Count([]CompactionEvent{
		realEvent(4, "same summary"),
		realEvent(9, "same summary"),
	}, PhantomIgnore)
	if tally.Count != 1 {
		t.Fatalf("byte-identical summaries must count once, got %d", tally.Count)
	}
	if tally.AuditTrail[1].Reboot || tally.AuditTrail[1].Reason != ReasonDuplicateFingerprint {
		t.Fatalf("second verdict should be duplicate: %+v", tally.AuditTrail[1])
	}
}

func TestCountPhantomNonPropagation(t *testing.T) {
	// A phantom must not disturb previousFingerprint: the real event after
	// it, equal to the fingerprint from before the phantom, stays a dup.
	tally := Count([]CompactionEvent{
		realEvent(1, "summary A"),
		phantomEvent(2),
		realEvent(3, "summary A"),
	}, PhantomIgnore)
	if tally.Count != 1 {
		t.Fatalf("expected 1 reboot, got %d", tally.Count)
	}
	if tally.AuditTrail[1].Reboot || tally.AuditTrail[1].Reason != ReasonPhantomIgnored {
		t.Fatalf("phantom verdict: %+v", tally.AuditTrail[1])
	}
	if tally.AuditTrail[2].Reboot || tally.AuditTrail[2].Reason != ReasonDuplicateFingerprint {
		t.Fatalf("post-phantom duplicate verdict: %+v", tally.AuditTrail[2])
	}
}

func TestCountPhantomPolicyCountUnique(t *testing.T) {
	tally := Count([]CompactionEvent{
		realEvent(1, "summary A"),
		phantomEvent(2),
		realEvent(3, "summary A"),
	}, PhantomCountUnique)
	// Historical behavior: the phantom counts and its sentinel fingerprint
	// never equals anything, so the following duplicate becomes new again.
	if tally.Count != 3 {
		t.Fatalf("expected 3 reboots under count-unique, got %d", tally.Count)
	}
	if !tally.AuditTrail[1].Reboot || tally.AuditTrail[1].Reason != ReasonPhantomCounted {
		t.Fatalf("phantom verdict: %+v", tally.AuditTrail[1])
	}
}

func TestCountTwoPhantomsNeverEqual(t *testing.T) {
	tally := Count([]CompactionEvent{
		phantomEvent(1),
		phantomEvent(2),
	}, PhantomCountUnique)
	if tally.Count != 2 {
		t.Fatalf("two phantoms are never the same transition, got %d", tally.Count)
	}
}

func TestCountGroundTruthScenario(t *testing.T) {
	// Completed events at 10 (no summary), 20, 20-dup
	// (suppressed before the counter by per-request dedup), 30 (distinct).
	events := []CompactionEvent{
		phantomEvent(10),
		realEvent(20, "window two summary"),
		realEvent(30, "window three summary"),
	}
	tally := Count(events, PhantomIgnore)
	if tally.Count != 2 {
		t.Fatalf("expected final count 2, got %d", tally.Count)
	}
	if tally.AuditTrail[0].Reboot {
		t.Fatalf("event 10 is phantom, not counted")
	}
	if !tally.AuditTrail[1].Reboot || !tally.AuditTrail[2].Reboot {
		t.Fatalf("events 20 and 30 are reboots: %+v", tally.AuditTrail)
	}
}

func TestCountIdempotent(t *testing.T) {
	events := []CompactionEvent{
		realEvent(1, "one"),
		phantomEvent(2),
		realEvent(3, "one"),
		realEvent(4, "two"),
	}
	first := Count(events, PhantomIgnore)
	second := Count(events, PhantomIgnore)
	if first.Count != second.Count || len(first.AuditTrail) != len(second.AuditTrail) {
		t.Fatalf("fold not deterministic")
	}
	for i := range first.AuditTrail {
		if first.AuditTrail[i] != second.AuditTrail[i] {
			t.Fatalf("audit trail diverged at %d", i)
		}
	}
}

func TestParsePhantomPolicy(t *testing.T) {
	if policy, err := ParsePhantomPolicy(""); err != nil || policy != PhantomIgnore {
		t.Fatalf("empty policy should default to ignore: %v %v", policy, err)
	}
	if policy, err := ParsePhantomPolicy("count-unique"); err != nil || policy != PhantomCountUnique {
		t.Fatalf("count-unique parse: %v %v", policy, err)
	}
	if _, err := ParsePhantomPolicy("whatever"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

package reboot

import "fmt"

// PhantomPolicy names the rule for completed markers with no stored
// summary. The governing sources disagree: the ground-truth rubric never
// counts them (PhantomIgnore, the default); the historical tool counted
// each as a unique reboot under a sentinel fingerprint
// (PhantomCountUnique). The policy is a single named switch rather than a
// hard-coded branch so maintainers can flip it without touching the fold.
type PhantomPolicy string

const (
	PhantomIgnore      PhantomPolicy = "ignore"
	PhantomCountUnique PhantomPolicy = "count-unique"
)

func ParsePhantomPolicy(value string) (PhantomPolicy, error) {
	switch PhantomPolicy(value) {
	case "", PhantomIgnore:
		return PhantomIgnore, nil
	case PhantomCountUnique:
		return PhantomCountUnique, nil
	default:
		return "", fmt.Errorf("unknown phantom policy %q (expected ignore or count-unique)", value)
	}
}

// Verdict reason codes recorded in the audit trail.
const (
	ReasonNewFingerprint       = "new_fingerprint"
	ReasonDuplicateFingerprint = "duplicate_fingerprint"
	ReasonPhantomIgnored       = "phantom_ignored"
	ReasonPhantomCounted       = "phantom_counted"
)

// Verdict is one audited event: the classified compaction plus the
// counter's decision.
type Verdict struct {
	CompactionEvent
	Reboot bool
	Reason string
}

// Tally is the terminal output of one replay: the true reboot count and
// the full ordered audit trail.
type Tally struct {
	Count      int
	AuditTrail []Verdict
}

// previousFingerprint is the single piece of counter state, threaded
// explicitly through the fold. Phantom events under the count-unique
// policy set the sentinel form, which no later fingerprint can equal.
type previousFingerprint struct {
	set     bool
	phantom bool
	hex     string
}

func (p previousFingerprint) matches(fingerprint string) bool {
	return p.set && !p.phantom && p.hex == fingerprint
}

// Count folds the ordered completed-compaction events into a Tally. Pure
// and deterministic: no retries, no recoverable failures, same input
// always yields the same count and audit trail.
func Count(events []CompactionEvent, policy PhantomPolicy) Tally {
	tally := Tally{AuditTrail: make([]Verdict, 0, len(events))}
	var previous previousFingerprint

	for _, event := range events {
		verdict := Verdict{CompactionEvent: event}
		switch {
		case event.Phantom && policy == PhantomCountUnique:
			verdict.Reboot = true
			verdict.Reason = ReasonPhantomCounted
			tally.Count++
			previous = previousFingerprint{set: true, phantom: true}
		case event.Phantom:
			verdict.Reason = ReasonPhantomIgnored
			// previousFingerprint deliberately untouched: a later real
			// event equal to the fingerprint seen before this phantom is
			// still a duplicate.
		case previous.matches(event.Fingerprint):
			verdict.Reason = ReasonDuplicateFingerprint
		default:
			verdict.Reboot = true
			verdict.Reason = ReasonNewFingerprint
			tally.Count++
			previous = previousFingerprint{set: true, hex: event.Fingerprint}
		}
		tally.AuditTrail = append(tally.AuditTrail, verdict)
	}
	return tally
}

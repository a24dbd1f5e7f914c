package reboot

import (
	"crypto/md5" // #nosec G501 -- content fingerprint for equality checks only, mandated by the historical report format.
	"encoding/hex"
	"fmt"

	"github.com/chatrewind/chatrewind/core/materialize"
)

// CompactionEvent is one completed-compaction candidate: at most one per
// request index. Phantom events carry no fingerprint; a phantom is never
// equal to any fingerprint, including another phantom's.
type CompactionEvent struct {
	RequestIndex int
	Marker       string
	Timestamp    int64
	Phantom      bool
	SummaryText  string
	Fingerprint  string
}

// Fingerprint computes the stable content digest used to compare two
// summaries: MD5 hex of the UTF-8 text. Equality comparison only; no
// security property is claimed or needed.
func Fingerprint(summaryText string) string {
	sum := md5.Sum([]byte(summaryText)) // #nosec G401 -- see package note on fingerprints.
	return hex.EncodeToString(sum[:])
}

// Classify walks the session in ascending request order and emits completed
// compaction events. In-progress and aborted markers are discarded here,
// not downstream. A request whose result substructure is malformed yields a
// structural-ambiguity warning and is conservatively treated as phantom.
func Classify(session *materialize.Session, vocabulary Vocabulary) ([]CompactionEvent, []string) {
	var events []CompactionEvent
	var warnings []string

	for _, request := range session.Requests {
		marker, found := vocabulary.FindCompletedMarker(request)
		if !found {
			continue
		}
		event := CompactionEvent{
			RequestIndex: request.Index,
			Marker:       marker,
			Timestamp:    request.Timestamp,
		}
		switch {
		case request.Result.Ambiguous:
			warnings = append(warnings, fmt.Sprintf(
				"request %d: completed marker with uninterpretable result substructure; treated as phantom", request.Index))
			event.Phantom = true
		case request.Result.Summary == nil:
			event.Phantom = true
		default:
			event.SummaryText = request.Result.Summary.Text
			event.Fingerprint = Fingerprint(request.Result.Summary.Text)
		}
		events = append(events, event)
	}
	return events, warnings
}

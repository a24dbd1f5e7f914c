package reboot

import "github.com/chatrewind/chatrewind/core/materialize"

// Window is the span of requests between counted reboots. Window 0 covers
// everything up to and including the first counted reboot request; window
// N runs from just after the Nth counted reboot through the next one (or
// the end of the session).
type Window struct {
	Number      int
	StartIndex  int
	EndIndex    int
	StartTS     int64 // milliseconds since epoch, 0 when unrecorded
	EndTS       int64
	Fingerprint string // fingerprint of the reboot that closed the previous window; empty for window 0
}

// Windows derives reboot windows from an audit trail. Only verdicts the
// counter judged to be reboots open a new window.
func Windows(session *materialize.Session, trail []Verdict) []Window {
	lastIndex := len(session.Requests) - 1
	if lastIndex < 0 {
		return nil
	}

	var windows []Window
	start := 0
	fingerprint := ""
	for _, verdict := range trail {
		if !verdict.Reboot {
			continue
		}
		windows = append(windows, Window{
			Number:      len(windows),
			StartIndex:  start,
			EndIndex:    verdict.RequestIndex,
			StartTS:     timestampAt(session, start),
			EndTS:       verdict.Timestamp,
			Fingerprint: fingerprint,
		})
		start = verdict.RequestIndex + 1
		fingerprint = verdict.Fingerprint
	}
	if start <= lastIndex || len(windows) == 0 {
		if start > lastIndex {
			start = lastIndex
		}
		windows = append(windows, Window{
			Number:      len(windows),
			StartIndex:  start,
			EndIndex:    lastIndex,
			StartTS:     timestampAt(session, start),
			EndTS:       timestampAt(session, lastIndex),
			Fingerprint: fingerprint,
		})
	}
	return windows
}

// WindowForTimestamp maps a timestamp to the window whose reboot span
// contains it. Returns -1 when the timestamp is zero or precedes the
// session entirely.
func WindowForTimestamp(windows []Window, timestamp int64) int {
	if timestamp == 0 {
		return -1
	}
	for position := len(windows) - 1; position >= 0; position-- {
		window := windows[position]
		if window.StartTS != 0 && timestamp >= window.StartTS {
			return window.Number
		}
	}
	if len(windows) > 0 {
		return windows[0].Number
	}
	return -1
}

func timestampAt(session *materialize.Session, index int) int64 {
	if index < 0 || index >= len(session.Requests) {
		return 0
	}
	return session.Requests[index].Timestamp
}

package mutationlog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	coreerrors "github.com/chatrewind/chatrewind/core/errors"
)

// ReadResult carries the decoded record stream plus per-line warnings for
// records that failed to decode. A malformed line is skipped, never fatal:
// downstream replay is index-keyed and tolerant of gaps in unrelated paths.
type ReadResult struct {
	Records      []Record
	LinesTotal   int
	LinesSkipped int
	Warnings     []string
}

// ReadLog decodes a line-delimited mutation log in stream order.
func ReadLog(reader io.Reader) (ReadResult, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 128*1024), 64*1024*1024)

	result := ReadResult{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		result.LinesTotal++
		record, err := DecodeRecord([]byte(raw))
		if err != nil {
			result.LinesSkipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d skipped: %v", lineNo, err))
			continue
		}
		if record.Kind == KindSnapshot && len(result.Records) > 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: snapshot after line 1 replaces prior state", lineNo))
		}
		result.Records = append(result.Records, record)
	}
	if err := scanner.Err(); err != nil {
		return ReadResult{}, coreerrors.Wrap(
			fmt.Errorf("read mutation log: %w", err),
			coreerrors.CategoryIOFailure, "log_read_failed", "", true,
		)
	}
	return result, nil
}

// ReadLogFile opens and decodes a mutation log from disk. A missing file is
// fatal: sessions that predate the line-delimited format are out of scope
// and there is no fallback parse.
func ReadLogFile(path string) (ReadResult, error) {
	// #nosec G304 -- log path is explicit local user input.
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ReadResult{}, coreerrors.Wrap(
				fmt.Errorf("session log not found: %s", path),
				coreerrors.CategoryMissingInput, "log_missing",
				"pre-migration sessions have no mutation log; verify the session id and workspace hash", true,
			)
		}
		return ReadResult{}, coreerrors.Wrap(
			fmt.Errorf("open session log: %w", err),
			coreerrors.CategoryIOFailure, "log_open_failed", "", true,
		)
	}
	defer func() { _ = file.Close() }()
	return ReadLog(file)
}

// Package validate checks mutation-log lines and report artifacts
// against their embedded JSON Schemas.
package validate

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

//go:embed schemas/mutation_record.schema.json
var mutationRecordSchema []byte

//go:embed schemas/session_report.schema.json
var sessionReportSchema []byte

var (
	recordOnce   sync.Once
	recordSchema *jsonschema.Schema
	recordErr    error

	reportOnce sync.Once
	reportSch  *jsonschema.Schema
	reportErr  error
)

// ValidateMutationLogFile validates every non-empty line of a JSONL
// mutation log against the record schema.
func ValidateMutationLogFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- caller supplies the log path
	if err != nil {
		return fmt.Errorf("read jsonl: %w", err)
	}
	return ValidateMutationLog(data)
}

// ValidateMutationLog validates JSONL bytes line by line. The first
// failing line aborts with its 1-based line number.
func ValidateMutationLog(data []byte) error {
	schema, err := mutationSchema()
	if err != nil {
		return err
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		b := bytes.TrimSpace(scanner.Bytes())
		if len(b) == 0 {
			continue
		}
		if err := validateJSON(schema, b); err != nil {
			return fmt.Errorf("jsonl line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read jsonl: %w", err)
	}
	return nil
}

// ValidateReportFile validates an emitted report artifact.
func ValidateReportFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- caller supplies the report path
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}
	return ValidateReport(data)
}

func ValidateReport(data []byte) error {
	schema, err := reportSchema()
	if err != nil {
		return err
	}
	return validateJSON(schema, data)
}

func mutationSchema() (*jsonschema.Schema, error) {
	recordOnce.Do(func() {
		recordSchema, recordErr = compileSchema(mutationRecordSchema)
	})
	return recordSchema, recordErr
}

func reportSchema() (*jsonschema.Schema, error) {
	reportOnce.Do(func() {
		reportSch, reportErr = compileSchema(sessionReportSchema)
	})
	return reportSch, reportErr
}

func compileSchema(data []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	schema, err := compiler.Compile(data)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func validateJSON(schema *jsonschema.Schema, data []byte) error {
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}

package mutationlog

import (
	"encoding/json"
	"fmt"
	"math"
)

// Kind discriminates the three mutation record shapes observed in chat
// session storage.
type Kind int

const (
	// KindSnapshot replaces the entire session tree. At most one, first in
	// the stream.
	KindSnapshot Kind = 0
	// KindSet overwrites the value at the record path, creating
	// intermediate containers as needed.
	KindSet Kind = 1
	// KindArrayReplace replaces the full array value at the record path.
	// No element-wise merging is ever performed.
	KindArrayReplace Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindSnapshot:
		return "snapshot"
	case KindSet:
		return "set"
	case KindArrayReplace:
		return "array_replace"
	default:
		return fmt.Sprintf("kind_%d", int(k))
	}
}

// Segment is one step of a record path: an object key or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

func KeySegment(key string) Segment {
	return Segment{Key: key}
}

func IndexSegment(index int) Segment {
	return Segment{Index: index, IsIndex: true}
}

func (s Segment) String() string {
	if s.IsIndex {
		return fmt.Sprintf("[%d]", s.Index)
	}
	return s.Key
}

// Record is one decoded log line. Immutable once read; stream order is
// significant and preserved by the reader.
type Record struct {
	Kind  Kind
	Path  []Segment
	Value any
}

type rawRecord struct {
	Kind  *int            `json:"kind"`
	K     []any           `json:"k"`
	Keys  []any           `json:"keys"`
	V     json.RawMessage `json:"v"`
	Value json.RawMessage `json:"value"`
}

// DecodeRecord decodes one JSONL line into a Record. Both the compact
// (k/v) and long (keys/value) field spellings appear in the wild; both are
// accepted.
func DecodeRecord(line []byte) (Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return Record{}, fmt.Errorf("decode mutation record: %w", err)
	}
	if raw.Kind == nil {
		return Record{}, fmt.Errorf("mutation record missing kind")
	}
	kind := Kind(*raw.Kind)
	switch kind {
	case KindSnapshot, KindSet, KindArrayReplace:
	default:
		return Record{}, fmt.Errorf("mutation record has unsupported kind %d", *raw.Kind)
	}

	rawValue := raw.V
	if rawValue == nil {
		rawValue = raw.Value
	}
	if rawValue == nil {
		return Record{}, fmt.Errorf("mutation record missing value")
	}
	var value any
	if err := json.Unmarshal(rawValue, &value); err != nil {
		return Record{}, fmt.Errorf("decode mutation record value: %w", err)
	}

	rawPath := raw.K
	if rawPath == nil {
		rawPath = raw.Keys
	}
	path, err := decodePath(rawPath)
	if err != nil {
		return Record{}, err
	}
	if kind != KindSnapshot && len(path) == 0 {
		return Record{}, fmt.Errorf("mutation record kind %s missing path", kind)
	}

	return Record{Kind: kind, Path: path, Value: value}, nil
}

func decodePath(raw []any) ([]Segment, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	path := make([]Segment, 0, len(raw))
	for position, element := range raw {
		switch typed := element.(type) {
		case string:
			path = append(path, KeySegment(typed))
		case float64:
			if typed < 0 || typed != math.Trunc(typed) {
				return nil, fmt.Errorf("mutation record path element %d is not a valid array index", position)
			}
			path = append(path, IndexSegment(int(typed)))
		default:
			return nil, fmt.Errorf("mutation record path element %d has unsupported type %T", position, element)
		}
	}
	return path, nil
}

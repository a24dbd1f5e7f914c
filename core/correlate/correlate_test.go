package correlate

import (
	"os"
	"path/filepath"
	"testing"

	coreerrors "github.com/chatrewind/chatrewind/core/errors"
	"github.com/chatrewind/chatrewind/core/materialize"
	"github.com/chatrewind/chatrewind/core/reboot"
)

func writeState(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write state: %v", err)
	}
	return path
}

func TestLoadOperations(t *testing.T) {
	path := writeState(t, `{
		"timeline": {
			"operations": [
				{"type": "create", "requestId": "req_1", "epoch": 5, "uri": {"fsPath": "/work/a.go"}},
				{"type": "textEdit", "requestId": "req_2", "uri": {"path": "/work/b.go"}},
				{"type": "textEdit", "requestId": "req_3", "uri": "file:///work/c.go"}
			]
		}
	}`)
	operations, err := LoadOperations(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(operations) != 3 {
		t.Fatalf("expected 3 operations, got %d", len(operations))
	}
	if operations[0].Path != "/work/a.go" || operations[0].Type != "create" || operations[0].Epoch != 5 {
		t.Fatalf("operation 0: %+v", operations[0])
	}
	if operations[1].Path != "/work/b.go" {
		t.Fatalf("path fallback: %+v", operations[1])
	}
	if operations[2].Path != "file:///work/c.go" {
		t.Fatalf("string uri: %+v", operations[2])
	}
	for _, operation := range operations {
		if operation.Window != -1 {
			t.Fatalf("unassigned operation must start in window -1: %+v", operation)
		}
	}
}

func TestLoadOperationsMissingFile(t *testing.T) {
	_, err := LoadOperations(filepath.Join(t.TempDir(), "absent.json"))
	if coreerrors.CategoryOf(err) != coreerrors.CategoryMissingInput {
		t.Fatalf("expected missing_input, got %v", err)
	}
}

func TestLoadOperationsMalformed(t *testing.T) {
	path := writeState(t, "{broken")
	_, err := LoadOperations(path)
	if coreerrors.CategoryOf(err) != coreerrors.CategoryMalformedRecord {
		t.Fatalf("expected malformed_record, got %v", err)
	}
}

func TestAssignGroupsByWindow(t *testing.T) {
	session := &materialize.Session{Requests: []materialize.Request{
		{Index: 0, Present: true, RequestID: "req_1", Timestamp: 100},
		{Index: 1, Present: true, RequestID: "req_2", Timestamp: 400},
	}}
	windows := []reboot.Window{
		{Number: 0, StartTS: 100, EndTS: 300},
		{Number: 1, StartTS: 300, EndTS: 500},
	}
	operations := []Operation{
		{Type: "create", Path: "/work/a.go", RequestID: "req_1", Window: -1},
		{Type: "textEdit", Path: "/work/a.go", RequestID: "req_2", Window: -1},
		{Type: "textEdit", Path: "/work/a.go", RequestID: "req_2", Window: -1},
		{Type: "textEdit", Path: "/work/b.go", RequestID: "req_ghost", Window: -1},
	}

	groups := Assign(operations, session, windows)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d: %+v", len(groups), groups)
	}
	if groups[0].Window != 0 || len(groups[0].Operations) != 1 {
		t.Fatalf("group 0: %+v", groups[0])
	}
	if groups[1].Window != 1 || len(groups[1].Operations) != 1 {
		t.Fatalf("duplicate (type,path) pairs must collapse: %+v", groups[1])
	}
	if groups[1].Operations[0].Timestamp != 400 {
		t.Fatalf("timestamp resolution: %+v", groups[1].Operations[0])
	}
	if groups[2].Window != -1 || len(groups[2].Operations) != 1 {
		t.Fatalf("unknown requestId lands in window -1 last: %+v", groups[2])
	}
	if groups[0].UniqueFiles != 1 {
		t.Fatalf("unique files: %+v", groups[0])
	}
}

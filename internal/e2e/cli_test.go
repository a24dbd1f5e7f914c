package e2e

import (
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chatrewind/chatrewind/internal/testutil"
)

const sessionID = "9f2c41aa-demo"
const workspaceHash = "a1b2c3d4e5f6"

const scenarioLog = `{"kind":0,"v":{"requests":[]}}
{"kind":1,"k":["requests",0],"v":{"requestId":"req-0","timestamp":1000,"modelId":"copilot/gpt-5","response":[],"result":{}}}
{"kind":1,"k":["requests",1],"v":{"requestId":"req-1","timestamp":2000,"modelId":"copilot/gpt-5","response":[{"kind":"progressTaskSerialized","content":{"value":"Summarized conversation history"}}],"result":{}}}
{"kind":1,"k":["requests",2],"v":{"requestId":"req-2","timestamp":3000,"modelId":"copilot/gpt-5","response":[{"kind":"progressTaskSerialized","content":{"value":"Compacted conversation"}}],"result":{"metadata":{"summary":{"text":"summary alpha"}}}}}
{"kind":1,"k":["requests",3],"v":{"requestId":"req-3","timestamp":4000,"modelId":"copilot/gpt-5","response":[{"kind":"progressTaskSerialized","content":{"value":"Compacted conversation"}}],"result":{"metadata":{"summary":{"text":"summary beta"}}}}}
`

const editingState = `{"timeline":{"operations":[` +
	`{"type":"created","requestId":"req-2","epoch":1,"uri":{"fsPath":"/work/pkg/alpha.go","path":"/work/pkg/alpha.go"}},` +
	`{"type":"modified","requestId":"req-3","epoch":2,"uri":{"fsPath":"/work/pkg/beta.go","path":"/work/pkg/beta.go"}}` +
	`]}}`

func seedStorage(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, workspaceHash, "chatSessions", sessionID+".jsonl"), []byte(scenarioLog))
	testutil.WriteFile(t, filepath.Join(root, workspaceHash, "chatEditingSessions", sessionID, "state.json"), []byte(editingState))
	return root
}

func TestCLIRebootsAndCorrelate(t *testing.T) {
	binPath := testutil.BuildBinary(t, testutil.RepoRoot(t))
	storageRoot := seedStorage(t)

	locate := exec.Command(binPath, "locate",
		"--session", sessionID, "--workspace", workspaceHash,
		"--storage-root", storageRoot, "--json")
	locateOut, err := locate.CombinedOutput()
	if err != nil {
		t.Fatalf("chatrewind locate failed: %v\n%s", err, string(locateOut))
	}
	var located struct {
		OK                 bool `json:"ok"`
		SessionLogExists   bool `json:"session_log_exists"`
		EditingStateExists bool `json:"editing_state_exists"`
	}
	if err := json.Unmarshal(locateOut, &located); err != nil {
		t.Fatalf("parse locate output: %v\n%s", err, string(locateOut))
	}
	if !located.OK || !located.SessionLogExists || !located.EditingStateExists {
		t.Fatalf("unexpected locate result: %s", string(locateOut))
	}

	reboots := exec.Command(binPath, "reboots",
		"--session", sessionID, "--workspace", workspaceHash,
		"--storage-root", storageRoot, "--json")
	rebootsOut, err := reboots.CombinedOutput()
	if err != nil {
		t.Fatalf("chatrewind reboots failed: %v\n%s", err, string(rebootsOut))
	}
	var counted struct {
		OK          bool `json:"ok"`
		RebootCount int  `json:"reboot_count"`
		Events      []struct {
			Reason string `json:"reason"`
		} `json:"events"`
	}
	if err := json.Unmarshal(rebootsOut, &counted); err != nil {
		t.Fatalf("parse reboots output: %v\n%s", err, string(rebootsOut))
	}
	if !counted.OK || counted.RebootCount != 2 {
		t.Fatalf("expected 2 reboots: %s", string(rebootsOut))
	}
	if len(counted.Events) != 3 || counted.Events[0].Reason != "phantom_ignored" {
		t.Fatalf("unexpected audit trail: %s", string(rebootsOut))
	}

	correlate := exec.Command(binPath, "correlate",
		"--session", sessionID, "--workspace", workspaceHash,
		"--storage-root", storageRoot, "--json")
	correlateOut, err := correlate.CombinedOutput()
	if err != nil {
		t.Fatalf("chatrewind correlate failed: %v\n%s", err, string(correlateOut))
	}
	var correlated struct {
		OK         bool `json:"ok"`
		Operations int  `json:"operations"`
		Windows    []struct {
			Window      int `json:"window"`
			UniqueFiles int `json:"unique_files"`
		} `json:"windows"`
	}
	if err := json.Unmarshal(correlateOut, &correlated); err != nil {
		t.Fatalf("parse correlate output: %v\n%s", err, string(correlateOut))
	}
	if !correlated.OK || correlated.Operations != 2 {
		t.Fatalf("expected 2 operations: %s", string(correlateOut))
	}
	if len(correlated.Windows) != 2 {
		t.Fatalf("expected operations split across 2 windows: %s", string(correlateOut))
	}
}

func TestCLIMissingSessionExitCode(t *testing.T) {
	binPath := testutil.BuildBinary(t, testutil.RepoRoot(t))
	storageRoot := t.TempDir()

	reboots := exec.Command(binPath, "reboots",
		"--session", "no-such-session", "--workspace", workspaceHash,
		"--storage-root", storageRoot, "--json")
	out, err := reboots.CombinedOutput()
	if err == nil {
		t.Fatalf("expected failure for missing session, got: %s", string(out))
	}
	if code := testutil.CommandExitCode(t, err); code != 4 {
		t.Fatalf("expected missing-input exit code 4, got %d\n%s", code, string(out))
	}
	if !strings.Contains(string(out), "missing_input") {
		t.Fatalf("expected missing_input category in output: %s", string(out))
	}
}

package main

import (
	"flag"
	"fmt"
	"strings"

	coreerrors "github.com/chatrewind/chatrewind/core/errors"
	"github.com/chatrewind/chatrewind/core/locate"
	"github.com/chatrewind/chatrewind/core/materialize"
	"github.com/chatrewind/chatrewind/core/mutationlog"
	"github.com/chatrewind/chatrewind/core/projectconfig"
	"github.com/chatrewind/chatrewind/core/reboot"
)

// sessionInputs are the flags shared by every command that replays a
// session log. The log may be named directly (--log) or resolved from the
// session identity (--session + --workspace).
type sessionInputs struct {
	logPath       string
	sessionID     string
	workspaceHash string
	storageRoot   string
	configPath    string
	phantomPolicy string
}

// replayOutcome is everything downstream commands need from one replay.
type replayOutcome struct {
	logPath       string
	editingState  string
	read          mutationlog.ReadResult
	session       *materialize.Session
	events        []reboot.CompactionEvent
	tally         reboot.Tally
	windows       []reboot.Window
	policy        reboot.PhantomPolicy
	warnings      []string
	sessionID     string
	workspaceHash string
}

func registerSessionFlags(flagSet *flag.FlagSet) *sessionInputs {
	inputs := &sessionInputs{}
	flagSet.StringVar(&inputs.logPath, "log", "", "path to the session mutation log (jsonl)")
	flagSet.StringVar(&inputs.sessionID, "session", "", "chat session id")
	flagSet.StringVar(&inputs.workspaceHash, "workspace", "", "workspace storage hash")
	flagSet.StringVar(&inputs.storageRoot, "storage-root", "", "workspace storage root override")
	flagSet.StringVar(&inputs.configPath, "config", "", "project config path (default "+projectconfig.DefaultPath+")")
	flagSet.StringVar(&inputs.phantomPolicy, "phantom-policy", "", "phantom reboot policy: ignore or count-unique")
	return inputs
}

var sessionValueFlags = map[string]bool{
	"log":            true,
	"session":        true,
	"workspace":      true,
	"storage-root":   true,
	"config":         true,
	"phantom-policy": true,
}

// replaySession resolves the log, reads it, replays it, and runs the full
// reboot analysis. Config values fill only the inputs flags left empty.
func replaySession(inputs *sessionInputs) (replayOutcome, error) {
	configPath := strings.TrimSpace(inputs.configPath)
	allowMissing := configPath == ""
	if allowMissing {
		configPath = projectconfig.DefaultPath
	}
	config, err := projectconfig.Load(configPath, allowMissing)
	if err != nil {
		return replayOutcome{}, err
	}
	if strings.TrimSpace(inputs.storageRoot) == "" {
		inputs.storageRoot = config.StorageRoot
	}
	if strings.TrimSpace(inputs.phantomPolicy) == "" {
		inputs.phantomPolicy = config.PhantomPolicy
	}

	policy, err := reboot.ParsePhantomPolicy(strings.TrimSpace(inputs.phantomPolicy))
	if err != nil {
		return replayOutcome{}, coreerrors.Wrap(err, coreerrors.CategoryInvalidInput, "phantom_policy_invalid", "", true)
	}

	outcome := replayOutcome{
		policy:        policy,
		sessionID:     strings.TrimSpace(inputs.sessionID),
		workspaceHash: strings.TrimSpace(inputs.workspaceHash),
	}

	outcome.logPath = strings.TrimSpace(inputs.logPath)
	if outcome.logPath == "" {
		if outcome.sessionID == "" || outcome.workspaceHash == "" {
			return replayOutcome{}, coreerrors.Wrap(
				fmt.Errorf("either --log or both --session and --workspace are required"),
				coreerrors.CategoryInvalidInput, "input_missing", "", true,
			)
		}
		paths, err := locate.Resolve(outcome.sessionID, outcome.workspaceHash, locate.Options{StorageRoot: inputs.storageRoot})
		if err != nil {
			return replayOutcome{}, err
		}
		outcome.logPath = paths.SessionLog
		outcome.editingState = paths.EditingState
	}

	outcome.read, err = mutationlog.ReadLogFile(outcome.logPath)
	if err != nil {
		return replayOutcome{}, err
	}
	outcome.session = materialize.Replay(outcome.read.Records)

	vocabulary := reboot.NewVocabulary(config.ExtraCompletedMarkers)
	events, classifyWarnings := reboot.Classify(outcome.session, vocabulary)
	outcome.events = events
	outcome.tally = reboot.Count(events, policy)
	outcome.windows = reboot.Windows(outcome.session, outcome.tally.AuditTrail)

	outcome.warnings = append(outcome.warnings, outcome.read.Warnings...)
	outcome.warnings = append(outcome.warnings, outcome.session.Warnings...)
	outcome.warnings = append(outcome.warnings, classifyWarnings...)
	return outcome, nil
}

const summaryPreviewLimit = 80

func summaryPreview(text string) string {
	runes := []rune(text)
	if len(runes) <= summaryPreviewLimit {
		return text
	}
	return string(runes[:summaryPreviewLimit])
}

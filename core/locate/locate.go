// Package locate resolves a session identity to the concrete storage files
// the editor keeps for it. Pure path plumbing; no parsing happens here.
package locate

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	coreerrors "github.com/chatrewind/chatrewind/core/errors"
)

// StorageRootEnv overrides workspace-storage discovery, mainly for tests
// and for inspecting storage copied off another machine.
const StorageRootEnv = "CHATREWIND_STORAGE_DIR"

const insidersStorageSuffix = "Code - Insiders/User/workspaceStorage"

// Paths are the two storage files a session may own. EditingState is
// optional on disk; SessionLog existence is checked by the reader, not
// here.
type Paths struct {
	SessionLog   string
	EditingState string
}

type Options struct {
	// StorageRoot wins over the environment and platform defaults.
	StorageRoot string
}

// Resolve maps (sessionID, workspaceHash) to the session's storage paths.
func Resolve(sessionID, workspaceHash string, opts Options) (Paths, error) {
	sessionID = strings.TrimSpace(sessionID)
	workspaceHash = strings.TrimSpace(workspaceHash)
	if sessionID == "" {
		return Paths{}, coreerrors.Wrap(
			fmt.Errorf("session id is required"),
			coreerrors.CategoryInvalidInput, "session_id_missing", "", true,
		)
	}
	if workspaceHash == "" {
		return Paths{}, coreerrors.Wrap(
			fmt.Errorf("workspace hash is required"),
			coreerrors.CategoryInvalidInput, "workspace_hash_missing", "", true,
		)
	}
	root, err := storageRoot(opts)
	if err != nil {
		return Paths{}, err
	}
	workspaceDir := filepath.Join(root, workspaceHash)
	return Paths{
		SessionLog:   filepath.Join(workspaceDir, "chatSessions", sessionID+".jsonl"),
		EditingState: filepath.Join(workspaceDir, "chatEditingSessions", sessionID, "state.json"),
	}, nil
}

func storageRoot(opts Options) (string, error) {
	if root := strings.TrimSpace(opts.StorageRoot); root != "" {
		return root, nil
	}
	if root := strings.TrimSpace(os.Getenv(StorageRootEnv)); root != "" {
		return root, nil
	}
	switch runtime.GOOS {
	case "windows":
		appData := strings.TrimSpace(os.Getenv("APPDATA"))
		if appData == "" {
			return "", coreerrors.Wrap(
				fmt.Errorf("APPDATA is not set"),
				coreerrors.CategoryMissingInput, "storage_root_unresolved",
				"set "+StorageRootEnv+" or pass --storage-root", true,
			)
		}
		return filepath.Join(appData, filepath.FromSlash(insidersStorageSuffix)), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", coreerrors.Wrap(err, coreerrors.CategoryMissingInput, "storage_root_unresolved", "set "+StorageRootEnv, true)
		}
		return filepath.Join(home, "Library", "Application Support", filepath.FromSlash(insidersStorageSuffix)), nil
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", coreerrors.Wrap(err, coreerrors.CategoryMissingInput, "storage_root_unresolved", "set "+StorageRootEnv, true)
		}
		return filepath.Join(home, ".config", filepath.FromSlash(insidersStorageSuffix)), nil
	}
}

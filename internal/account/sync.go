package account

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"authdeck/internal/oauth"
)

// authJSONName is the credential file consumed by external CLI tooling.
const authJSONName = "auth.json"

// externalEntry is one provider entry in the external auth.json schema.
type externalEntry struct {
	Type    string `json:"type"`
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	// Expires is the access token expiry in Unix milliseconds.
	Expires int64 `json:"expires"`
	// AccountID is the provider-side account identifier, omitted when
	// unknown.
	AccountID string `json:"accountId,omitempty"`
}

// ExternalSyncDir resolves the directory holding the external auth.json:
// $XDG_DATA_HOME/opencode, falling back to ~/.local/share/opencode.
func ExternalSyncDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "opencode"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "opencode"), nil
}

// SyncAuthJSON exports one account's credentials into dir/auth.json under
// the "openai" provider key, merging with whatever other providers the file
// already holds. An expired access token is refused: exporting it would
// hand external tooling a credential that immediately fails.
func SyncAuthJSON(dir string, acct *Account) error {
	if acct.Tokens.Expired() {
		return fmt.Errorf("refusing to export expired credentials for %s, refresh first", acct.Email)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create sync directory: %w", err)
	}

	path := filepath.Join(dir, authJSONName)

	providers := map[string]json.RawMessage{}
	if data, err := os.ReadFile(path); err == nil { // #nosec G304 -- fixed filename under caller-chosen dir
		if err := json.Unmarshal(data, &providers); err != nil {
			slog.Warn("existing auth.json is unreadable, rewriting it", "path", path, "error", err.Error())
			providers = map[string]json.RawMessage{}
		}
	}

	accountID := acct.ProviderAccountID
	if accountID == "" {
		accountID = oauth.ProviderAccountID(acct.Tokens.AccessToken)
	}

	entry, err := json.Marshal(externalEntry{
		Type:      "oauth",
		Access:    acct.Tokens.AccessToken,
		Refresh:   acct.Tokens.RefreshToken,
		Expires:   acct.Tokens.Expiry.UnixMilli(),
		AccountID: accountID,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal credential entry: %w", err)
	}
	providers["openai"] = entry

	data, err := json.MarshalIndent(providers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal auth.json: %w", err)
	}

	tmp, err := os.CreateTemp(dir, authJSONName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary auth.json: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to restrict auth.json permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write auth.json: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close auth.json: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit auth.json: %w", err)
	}

	slog.Info("credentials exported", "path", path, "email", acct.Email)
	return nil
}

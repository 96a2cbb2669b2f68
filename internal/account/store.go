package account

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultStorageDir is the default account storage directory, relative to
// the user's home directory.
const DefaultStorageDir = ".config/authdeck/accounts"

// Store persists accounts as one JSON file per account.
//
// SECURITY: account files hold live credentials. Files are created with
// 0600 and the directory with 0700; writes go through a temporary file and
// rename so a crash never leaves a torn account file behind.
type Store struct {
	mu  sync.RWMutex
	dir string
}

// NewStore opens (and if needed creates) an account store at dir. An empty
// dir selects DefaultStorageDir under the user's home directory.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dir = filepath.Join(home, DefaultStorageDir)
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create account storage directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Dir returns the storage directory, for watchers and status output.
func (s *Store) Dir() string {
	return s.dir
}

// Upsert stores an account keyed by email. When an account with the same
// email already exists, its ID and creation time are kept and everything
// else is replaced; otherwise a fresh ID is assigned.
func (s *Store) Upsert(acct *Account) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	existing, err := s.findByEmailLocked(acct.Email)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		acct.ID = existing.ID
		acct.CreatedAt = existing.CreatedAt
	} else {
		acct.ID = uuid.NewString()
		acct.CreatedAt = now
	}
	acct.UpdatedAt = now

	if err := s.writeLocked(acct); err != nil {
		return nil, err
	}

	slog.Info("account stored", "account_id", acct.ID, "email", acct.Email)
	return acct, nil
}

// Save rewrites an already-stored account in place, bumping UpdatedAt.
func (s *Store) Save(acct *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acct.ID == "" {
		return fmt.Errorf("cannot save an account without an ID")
	}
	acct.UpdatedAt = time.Now()
	return s.writeLocked(acct)
}

// Get loads one account by ID.
func (s *Store) Get(id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.readLocked(id)
}

// FindByEmail loads the account with the given email, or nil when none
// exists.
func (s *Store) FindByEmail(email string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.findByEmailLocked(email)
}

// List returns all stored accounts sorted by email.
func (s *Store) List() ([]*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read account directory: %w", err)
	}

	var accounts []*Account
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		acct, err := s.readLocked(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			slog.Warn("skipping unreadable account file", "file", entry.Name(), "error", err.Error())
			continue
		}
		accounts = append(accounts, acct)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Email < accounts[j].Email
	})
	return accounts, nil
}

// Delete removes one account. Deleting an absent account is a no-op.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", id, err)
	}

	slog.Info("account deleted", "account_id", id)
	return nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) findByEmailLocked(email string) (*Account, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read account directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		acct, err := s.readLocked(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		if acct.Email == email {
			return acct, nil
		}
	}
	return nil, nil
}

func (s *Store) readLocked(id string) (*Account, error) {
	// #nosec G304 -- path is built from a stored account ID, not user input
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("account %s: %w", id, ErrAccountNotFound)
		}
		return nil, err
	}

	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account %s: %w", id, err)
	}
	return &acct, nil
}

// writeLocked persists one account atomically: marshal, write a temporary
// sibling with 0600, then rename over the target.
func (s *Store) writeLocked(acct *Account) error {
	data, err := json.MarshalIndent(acct, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, acct.ID+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary account file: %w", err)
	}
	tmpName := tmp.Name()

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to restrict account file permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write account file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close account file: %w", err)
	}

	if err := os.Rename(tmpName, s.path(acct.ID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit account file: %w", err)
	}
	return nil
}

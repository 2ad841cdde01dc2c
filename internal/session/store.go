// File: internal/session/store.go
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/mitchellh/go-homedir"

	"github.com/xkilldash9x/tubepilot/pkg/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoSession is returned by Load when nothing is stored for the account.
var ErrNoSession = errors.New("no stored session")

// DefaultDir is where FileStore keeps cookie files unless configured otherwise.
const DefaultDir = "./yt-auth"

// Store persists the cookies of one account between runs.
type Store interface {
	Load(ctx context.Context, accountID string) ([]schemas.Cookie, error)
	Save(ctx context.Context, accountID string, cookies []schemas.Cookie) error
}

// AccountKey maps an account id to a storage-safe key. The id is split on its
// last "@"; each half has every character outside [A-Za-z0-9_-] replaced by
// "_" and the halves are joined as cookies-<local>-<domain>.
func AccountKey(accountID string) string {
	local, domain := accountID, ""
	if i := strings.LastIndex(accountID, "@"); i >= 0 {
		local, domain = accountID[:i], accountID[i+1:]
	}
	key := "cookies-" + sanitize(local)
	if domain != "" {
		key += "-" + sanitize(domain)
	}
	return key
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, s)
}

// FileStore keeps one JSON cookie list per account in a directory.
// Files are not locked; concurrent batches for one account may race.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir. A leading "~" is expanded.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = DefaultDir
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to expand session directory %q: %w", dir, err)
	}
	return &FileStore{dir: expanded}, nil
}

// Dir returns the resolved storage directory.
func (s *FileStore) Dir() string { return s.dir }

// Path returns the cookie file for accountID.
func (s *FileStore) Path(accountID string) string {
	return filepath.Join(s.dir, AccountKey(accountID)+".json")
}

func (s *FileStore) Load(ctx context.Context, accountID string) ([]schemas.Cookie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(accountID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, schemas.IOError("session.load", err)
	}
	var cookies []schemas.Cookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, schemas.IOError("session.load", fmt.Errorf("decode %s: %w", s.Path(accountID), err))
	}
	if len(cookies) == 0 {
		return nil, ErrNoSession
	}
	return cookies, nil
}

// Save writes the cookies through a temp file so a crash never leaves a
// truncated session behind.
func (s *FileStore) Save(ctx context.Context, accountID string, cookies []schemas.Cookie) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return schemas.IOError("session.save", err)
	}
	data, err := json.Marshal(cookies)
	if err != nil {
		return schemas.IOError("session.save", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".cookies-*.tmp")
	if err != nil {
		return schemas.IOError("session.save", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return schemas.IOError("session.save", err)
	}
	if err := tmp.Close(); err != nil {
		return schemas.IOError("session.save", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(accountID)); err != nil {
		return schemas.IOError("session.save", err)
	}
	return nil
}

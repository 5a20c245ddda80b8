// Package tokenstore persists control tokens issued by Desk devices.
//
// Tokens are stored in a single YAML file mapping hostnames to token
// records, so one workstation can hold tokens for several robots at once.
// Saving a token for one host rewrites the file but preserves every other
// host's entry. The store uses whole-file read-modify-write and is not safe
// for concurrent writers from multiple processes.
package tokenstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/openfranka/deskctl/internal/appdir"
	"github.com/openfranka/deskctl/internal/fileutil"
	"github.com/openfranka/deskctl/internal/logging"
)

// ErrMissingSecret is returned by Save when a token has an id but no secret.
// A persisted claim without its secret could never authorize a privileged
// request, so writing one would only mask a bug elsewhere.
var ErrMissingSecret = errors.New("token has an id but no secret")

// Token represents a control token owned by a user on one device.
// The zero value is the "no token held" sentinel.
type Token struct {
	// ID is the device-issued token identifier. Empty means no claim.
	ID string `yaml:"id"`
	// OwnedBy is the username the token was issued to.
	OwnedBy string `yaml:"owned_by"`
	// Token is the opaque secret presented on privileged requests.
	Token string `yaml:"token"`
}

// IsZero reports whether the token is the "no token held" sentinel.
func (t Token) IsZero() bool {
	return t.ID == ""
}

// Store is a durable hostname -> Token mapping backed by a YAML file.
type Store struct {
	path string
	log  *slog.Logger
}

// New creates a store backed by the given file path.
// The file does not need to exist yet.
func New(path string) *Store {
	return &Store{path: path, log: logging.Store()}
}

// Default returns a store backed by tokens.yaml in the deskctl data directory.
func Default() (*Store, error) {
	path, err := appdir.TokensPath()
	if err != nil {
		return nil, err
	}
	return New(path), nil
}

// Path returns the file path backing the store.
func (s *Store) Path() string {
	return s.path
}

// Load returns the token recorded for host.
// A missing file or missing entry yields the zero token, not an error.
func (s *Store) Load(host string) (Token, error) {
	records, err := s.readAll()
	if err != nil {
		return Token{}, err
	}
	return records[host], nil
}

// Save records the token for host, preserving every other host's entry.
// It performs a read-merge-write: the full record set is loaded, the entry
// for host is replaced, and the file is rewritten atomically. Missing parent
// directories are created.
func (s *Store) Save(host string, tok Token) error {
	if tok.ID != "" && tok.Token == "" {
		return fmt.Errorf("save token for %s: %w", host, ErrMissingSecret)
	}

	records, err := s.readAll()
	if err != nil {
		return err
	}
	records[host] = tok

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	if err := fileutil.WriteYAMLAtomic(s.path, records, 0600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	s.log.Debug("control token saved", "host", host, "token_id", tok.ID, "owned_by", tok.OwnedBy)
	return nil
}

// readAll loads the full record set, returning an empty map when the
// file does not exist yet.
func (s *Store) readAll() (map[string]Token, error) {
	records := make(map[string]Token)
	err := fileutil.ReadYAML(s.path, &records)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}
	if records == nil {
		records = make(map[string]Token)
	}
	return records, nil
}

package tokenstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"events-client/internal/crypto"
)

const fileVersion = 1

// envelope is the on-disk layout. Exactly one of Tokens and Sealed is set.
type envelope struct {
	Version int     `json:"version"`
	Tokens  *Tokens `json:"tokens,omitempty"`
	Sealed  string  `json:"sealed,omitempty"`
}

// FileStore keeps tokens in a JSON file readable only by its owner.
// With an Encryptor the tokens are sealed with AES-GCM before writing.
type FileStore struct {
	path      string
	encryptor *crypto.Encryptor
}

// NewFileStore creates a FileStore at path. encryptor may be nil.
func NewFileStore(path string, encryptor *crypto.Encryptor) *FileStore {
	return &FileStore{path: path, encryptor: encryptor}
}

// Path returns the file location
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) (Tokens, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Tokens{}, nil
	}
	if err != nil {
		return Tokens{}, fmt.Errorf("read session file: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Tokens{}, fmt.Errorf("parse session file %s: %w", s.path, err)
	}
	if env.Version != fileVersion {
		return Tokens{}, fmt.Errorf("session file %s has unsupported version %d", s.path, env.Version)
	}

	switch {
	case env.Sealed != "":
		if s.encryptor == nil {
			return Tokens{}, fmt.Errorf("session file %s is encrypted but no encryption key is configured", s.path)
		}
		var tokens Tokens
		if err := s.encryptor.DecryptJSON(env.Sealed, &tokens); err != nil {
			return Tokens{}, fmt.Errorf("decrypt session file: %w", err)
		}
		return tokens, nil
	case env.Tokens != nil:
		return *env.Tokens, nil
	}
	return Tokens{}, nil
}

// Save writes the tokens atomically: temp file in the same directory,
// chmod 0600, rename over the target.
func (s *FileStore) Save(ctx context.Context, tokens Tokens) error {
	env := envelope{Version: fileVersion}
	if s.encryptor != nil {
		sealed, err := s.encryptor.EncryptJSON(tokens)
		if err != nil {
			return fmt.Errorf("encrypt session: %w", err)
		}
		env.Sealed = sealed
	} else {
		env.Tokens = &tokens
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Clear removes the file. A missing file is not an error.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

package session

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/wricardo/blockyard/game/service"
)

const (
	jsonExt = ".json"
	zstdExt = ".json.zst"
)

// FilePersistence implements SessionPersistence with one file per session
type FilePersistence struct {
	sessionsDir string
	configs     ConfigLoader
	compress    bool
}

// FileOption tunes a FilePersistence
type FileOption func(*FilePersistence)

// WithCompression writes sessions as zstd-compressed JSON
func WithCompression() FileOption {
	return func(fp *FilePersistence) { fp.compress = true }
}

// NewFilePersistence creates a new file-based session persistence layer
func NewFilePersistence(sessionsDir string, configs ConfigLoader, opts ...FileOption) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	fp := &FilePersistence{
		sessionsDir: sessionsDir,
		configs:     configs,
	}
	for _, opt := range opts {
		opt(fp)
	}
	return fp, nil
}

// Save persists a session, replacing any copy in the other format
func (fp *FilePersistence) Save(session *service.Session) error {
	data, err := persistedData(session)
	if err != nil {
		return err
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	path, stale := fp.jsonPath(session.ID), fp.zstdPath(session.ID)
	if fp.compress {
		path, stale = stale, path
		if err := writeCompressed(path, jsonData); err != nil {
			return fmt.Errorf("failed to write session file: %w", err)
		}
	} else if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale session file: %w", err)
	}
	return nil
}

// Load reads a session in either format
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	raw, err := fp.read(id)
	if err != nil {
		return nil, err
	}

	data, err := decodeSessionData(raw)
	if err != nil {
		return nil, err
	}
	return restoreSession(data, fp.configs)
}

// Delete removes a session file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}

	for _, path := range []string{fp.jsonPath(id), fp.zstdPath(id)} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
	}
	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	seen := make(map[string]bool)
	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		var id string
		switch {
		case strings.HasSuffix(name, zstdExt):
			id = strings.TrimSuffix(name, zstdExt)
		case strings.HasSuffix(name, jsonExt):
			id = strings.TrimSuffix(name, jsonExt)
		default:
			continue
		}
		if !seen[id] {
			seen[id] = true
			sessionIDs = append(sessionIDs, id)
		}
	}

	return sessionIDs, nil
}

// Exists checks if a session file exists in either format
func (fp *FilePersistence) Exists(id string) bool {
	for _, path := range []string{fp.jsonPath(id), fp.zstdPath(id)} {
		if _, err := os.Stat(path); err == nil {
			return true
		}
	}
	return false
}

func (fp *FilePersistence) read(id string) ([]byte, error) {
	if raw, err := os.ReadFile(fp.jsonPath(id)); err == nil {
		return raw, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	raw, err := readCompressed(fp.zstdPath(id))
	if os.IsNotExist(err) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	return raw, nil
}

func (fp *FilePersistence) jsonPath(id string) string {
	return filepath.Join(fp.sessionsDir, id+jsonExt)
}

func (fp *FilePersistence) zstdPath(id string) string {
	return filepath.Join(fp.sessionsDir, id+zstdExt)
}

func writeCompressed(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

func readCompressed(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return io.ReadAll(dec)
}

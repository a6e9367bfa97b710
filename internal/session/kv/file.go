package kv

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// File is a Store kept in a single YAML document on disk, so a session
// outlives the process that created it. Each namespace is a top-level key.
type File struct {
	mu        sync.Mutex
	path      string
	namespace string
	now       func() time.Time
}

type fileDoc map[string]map[string]Entry

// NewFile creates a store writing to path under namespace. The file is
// created on first write. A nil clock uses time.Now.
func NewFile(path, namespace string, now func() time.Time) *File {
	if now == nil {
		now = time.Now
	}
	return &File{path: path, namespace: namespace, now: now}
}

// DefaultFilePath returns the session file under the user config directory.
func DefaultFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "storefront", "session.yaml"), nil
}

// Get returns the entry for key.
func (f *File) Get(_ context.Context, key string) (Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return Entry{}, err
	}
	e, ok := doc[f.namespace][key]
	if !ok || e.Expired(f.now()) {
		return Entry{}, apperrors.NotFound("session entry", key)
	}
	return e, nil
}

// Set stores entry under key. An already expired entry removes the key.
func (f *File) Set(_ context.Context, key string, entry Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	ns := doc[f.namespace]
	if ns == nil {
		ns = make(map[string]Entry)
		doc[f.namespace] = ns
	}
	if entry.Expired(f.now()) {
		delete(ns, key)
	} else {
		ns[key] = entry
	}
	return f.save(doc)
}

// Delete removes keys in a single write.
func (f *File) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}
	ns := doc[f.namespace]
	if len(ns) == 0 {
		return nil
	}
	for _, k := range keys {
		delete(ns, k)
	}
	if len(ns) == 0 {
		delete(doc, f.namespace)
	}
	return f.save(doc)
}

// Ping checks that the file, if present, can be read.
func (f *File) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, err := f.load()
	return err
}

// Close is a no-op.
func (f *File) Close() error { return nil }

func (f *File) load() (fileDoc, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fileDoc{}, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}
	doc := fileDoc{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse session file %s: %w", f.path, err)
	}
	return doc, nil
}

// save writes doc through a temporary file renamed into place. The file
// holds bearer tokens and is readable by the owner only.
func (f *File) save(doc fileDoc) error {
	now := f.now()
	for ns, entries := range doc {
		for k, e := range entries {
			if e.Expired(now) {
				delete(entries, k)
			}
		}
		if len(entries) == 0 {
			delete(doc, ns)
		}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

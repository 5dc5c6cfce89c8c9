package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	maxConfigFileBytes   = 1 << 20
	maxRenameRetry       = 10
	renameRetryBaseDelay = 10 * time.Millisecond
)

// File persists State as JSON at Path.
type File struct {
	Path string
}

func NewFile(path string) *File {
	return &File{Path: path}
}

// Load reads the state. A missing file returns an empty state and an error
// matching os.ErrNotExist.
func (f *File) Load() (State, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return EmptyState(), err
	}
	if info.Size() > maxConfigFileBytes {
		return EmptyState(), fmt.Errorf("config %s too large (%d bytes)", f.Path, info.Size())
	}
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return EmptyState(), err
	}
	s, err := Decode(data)
	if err != nil {
		return EmptyState(), fmt.Errorf("parse %s: %w", f.Path, err)
	}
	return s, nil
}

func (f *File) Save(s State) error {
	data, err := Encode(s)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return atomicWrite(f.Path, data)
}

// atomicWrite writes through a temp file in the same directory and renames
// it over path, so readers never observe a half-written config.
func atomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("save config: mkdir: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".config.json.tmp.*")
	if err != nil {
		return fmt.Errorf("save config: create temp: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
		}
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		return fmt.Errorf("save config: write: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		return fmt.Errorf("save config: sync: %w", err)
	}
	err = tmpFile.Close()
	tmpFile = nil
	if err != nil {
		return fmt.Errorf("save config: close: %w", err)
	}

	if err = renameWithRetry(tmpPath, path); err != nil {
		return fmt.Errorf("save config: rename: %w", err)
	}
	return nil
}

// renameWithRetry tolerates transient Windows file locks held by indexers
// and antivirus scanners.
func renameWithRetry(src, dst string) error {
	var err error
	for attempt := range maxRenameRetry {
		if err = os.Rename(src, dst); err == nil {
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		time.Sleep(renameRetryBaseDelay * time.Duration(attempt+1))
	}
	return err
}

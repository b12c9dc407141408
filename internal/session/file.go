// ABOUTME: File-backed session persisted under the XDG config directory
// ABOUTME: One JSON document per profile so a session survives restarts

package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// AppName names the config directory
const AppName = "quebec"

// FileBackend stores the session as JSON at configDir/sessions/<profile>.json
type FileBackend struct {
	configDir string
	profile   string
}

// NewFileBackend creates a file backend for the given profile
func NewFileBackend(configDir, profile string) *FileBackend {
	if profile == "" {
		profile = "default"
	}
	return &FileBackend{configDir: configDir, profile: profile}
}

// DefaultConfigDir returns the default config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", AppName)
}

// Path returns the session file location
func (f *FileBackend) Path() string {
	return filepath.Join(f.configDir, "sessions", f.profile+".json")
}

// Load reads the session file. A missing or corrupt file reads as empty.
func (f *FileBackend) Load() (map[Key]string, error) {
	data, err := os.ReadFile(f.Path())
	if errors.Is(err, os.ErrNotExist) {
		return map[Key]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return map[Key]string{}, nil
	}

	out := make(map[Key]string, len(raw))
	for k, v := range raw {
		out[Key(k)] = v
	}
	return out, nil
}

// Save merges values into the session file
func (f *FileBackend) Save(values map[Key]string) error {
	current, err := f.Load()
	if err != nil {
		return err
	}
	for k, v := range values {
		if k.Valid() {
			current[k] = v
		}
	}
	return f.write(current)
}

// Delete removes keys; the file is removed once nothing remains
func (f *FileBackend) Delete(keys ...Key) error {
	current, err := f.Load()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(current, k)
	}
	if len(current) == 0 {
		if err := os.Remove(f.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return f.write(current)
}

func (f *FileBackend) write(values map[Key]string) error {
	dir := filepath.Dir(f.Path())
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	raw := make(map[string]string, len(values))
	for k, v := range values {
		raw[string(k)] = v
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, f.profile+"-*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.Path())
}

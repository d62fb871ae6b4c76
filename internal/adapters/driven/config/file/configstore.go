package file

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/factura-cli/internal/core/ports/driven"
)

// HomeEnv overrides the data directory.
const HomeEnv = "FACTURA_HOME"

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in config.toml. Keys are flat in memory
// ("output.format") and written as TOML tables ([output] format = ...).
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	data     map[string]any
}

// DataDir returns the factura data directory: $FACTURA_HOME when set,
// otherwise ~/.factura.
func DataDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return homedir.Expand(dir)
	}
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".factura"), nil
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, DataDir is used.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		dir, err := DataDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		data:     make(map[string]any),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get implements driven.ConfigStore.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return v, ok
}

// GetString implements driven.ConfigStore.
func (s *ConfigStore) GetString(key string) string {
	v, _ := s.Get(key)
	str, _ := v.(string)
	return str
}

// GetInt implements driven.ConfigStore. TOML decodes integers as int64.
func (s *ConfigStore) GetInt(key string) int {
	v, _ := s.Get(key)
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// GetBool implements driven.ConfigStore.
func (s *ConfigStore) GetBool(key string) bool {
	v, _ := s.Get(key)
	b, _ := v.(bool)
	return b
}

// Set stores value and rewrites the file.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.write()
}

// Unset removes key and rewrites the file. Unknown keys are ignored.
func (s *ConfigStore) Unset(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		return nil
	}
	delete(s.data, key)
	return s.write()
}

// Keys implements driven.ConfigStore.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path returns the location of config.toml.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// Load replaces the in-memory settings with the file's contents. A missing
// file is an empty configuration; a malformed one leaves memory untouched.
func (s *ConfigStore) Load() error {
	raw, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		raw, err = nil, nil
	}
	if err != nil {
		return err
	}

	tables := map[string]any{}
	if err := toml.Unmarshal(raw, &tables); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filePath, err)
	}

	flat := make(map[string]any)
	flatten(flat, "", tables)

	s.mu.Lock()
	s.data = flat
	s.mu.Unlock()
	return nil
}

// write saves through a temporary file and rename so readers and the
// watcher never see a half-written config. Caller holds the lock.
func (s *ConfigStore) write() error {
	raw, err := toml.Marshal(nest(s.data))
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.filePath), ".config-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.filePath)
}

// flatten copies tables into dst under dotted keys.
func flatten(dst map[string]any, prefix string, tables map[string]any) {
	for k, v := range tables {
		if prefix != "" {
			k = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(dst, k, sub)
			continue
		}
		dst[k] = v
	}
}

// nest turns dotted keys into TOML tables. When a key is both a value and
// a table prefix ("a" and "a.b"), the value wins and the deeper key is
// dropped.
func nest(flat map[string]any) map[string]any {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.Count(keys[i], ".") < strings.Count(keys[j], ".")
	})

	root := map[string]any{}
next:
	for _, key := range keys {
		parts := strings.Split(key, ".")
		table := root
		for _, part := range parts[:len(parts)-1] {
			switch child := table[part].(type) {
			case nil:
				sub := map[string]any{}
				table[part] = sub
				table = sub
			case map[string]any:
				table = child
			default:
				continue next
			}
		}
		table[parts[len(parts)-1]] = flat[key]
	}
	return root
}

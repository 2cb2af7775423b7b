package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/luma/fcp/protocol"
)

const updateBufferSize = 255

// Sections whose values are converted using the option's dataType.
var typedSections = map[string]bool{
	"current": true,
	"default": true,
}

type ConfigStore struct {
	valuesMu sync.RWMutex
	values   []byte

	mu          sync.Mutex
	updateChans []chan *Update

	// stop will be closed when Close() is called
	stop chan struct{}
}

func NewConfigStore() *ConfigStore {
	return &ConfigStore{
		values:      []byte(""),
		stop:        make(chan struct{}),
		updateChans: make([]chan *Update, 0),
	}
}

func (c *ConfigStore) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning() {
		return nil
	}

	close(c.stop)

	for _, updateChan := range c.updateChans {
		close(updateChan)
	}

	return nil
}

func (c *ConfigStore) Load(ctx context.Context, fields map[string]string) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}

	// Deterministic documents make Backup output comparable
	sort.Strings(keys)

	values := []byte("{}")

	for _, key := range keys {
		section, option, ok := splitKey(key)
		if !ok {
			continue
		}

		var err error
		values, err = setOption(values, section, option, fields[key], fields["dataType."+option])
		if err != nil {
			return fmt.Errorf("Failed to load '%s': %w", key, err)
		}
	}

	c.valuesMu.Lock()
	c.values = values
	c.valuesMu.Unlock()

	c.notify(&Update{Path: "", Value: values})
	return nil
}

func (c *ConfigStore) Set(ctx context.Context, path string, value interface{}) error {
	c.valuesMu.Lock()
	values, err := sjson.SetBytes(c.values, path, value)
	if err != nil {
		c.valuesMu.Unlock()
		return fmt.Errorf("Failed to set '%s': %w", path, err)
	}

	c.values = values
	raw := []byte(gjson.GetBytes(values, path).Raw)
	c.valuesMu.Unlock()

	c.notify(&Update{Path: path, Value: raw})
	return nil
}

func (c *ConfigStore) Get(ctx context.Context, path string) ([]byte, error) {
	c.valuesMu.RLock()
	defer c.valuesMu.RUnlock()

	if path == "" {
		return c.backup(), nil
	}

	result := gjson.GetBytes(c.values, path)
	if !result.Exists() {
		return nil, fmt.Errorf("'%s': %w", path, ErrNotFound)
	}

	return []byte(result.Raw), nil
}

// Option returns the value of option in section, as text.
func (c *ConfigStore) Option(section, option string) (string, bool) {
	c.valuesMu.RLock()
	defer c.valuesMu.RUnlock()

	result := gjson.GetBytes(c.values, OptionPath(section, option))
	return result.String(), result.Exists()
}

// Current returns the current value of every option, flattened back to the
// option names ModifyConfig expects.
func (c *ConfigStore) Current() map[string]string {
	c.valuesMu.RLock()
	defer c.valuesMu.RUnlock()

	current := make(map[string]string)
	gjson.GetBytes(c.values, "current").ForEach(func(key, value gjson.Result) bool {
		current[key.String()] = value.String()
		return true
	})

	return current
}

func (c *ConfigStore) ListenToUpdates() <-chan *Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	updateChan := make(chan *Update, updateBufferSize)
	if !c.isRunning() {
		close(updateChan)
		return updateChan
	}

	c.updateChans = append(c.updateChans, updateChan)
	return updateChan
}

func (c *ConfigStore) Restore(values []byte) error {
	if len(values) > 0 && !gjson.ValidBytes(values) {
		return ErrInvalidDocument
	}

	c.valuesMu.Lock()
	c.values = values
	c.valuesMu.Unlock()

	return nil
}

func (c *ConfigStore) Backup() ([]byte, error) {
	c.valuesMu.RLock()
	defer c.valuesMu.RUnlock()

	return c.backup(), nil
}

func (c *ConfigStore) backup() []byte {
	if len(c.values) == 0 {
		return []byte("{}")
	}

	return append([]byte{}, c.values...)
}

// notify sends update to every listener. Listeners that have fallen behind
// by a full buffer miss the update.
func (c *ConfigStore) notify(update *Update) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isRunning() {
		return
	}

	for _, updateChan := range c.updateChans {
		select {
		case updateChan <- update:
		default:
		}
	}
}

// isRunning returns true if Close has not been called
func (c *ConfigStore) isRunning() bool {
	select {
	case <-c.stop:
		return false

	default:
		return true
	}
}

// OptionPath is the document path of option within section. Option names
// contain dots, which are escaped so they stay a single key.
func OptionPath(section, option string) string {
	return section + "." + EscapeKey(option)
}

var keyEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`|`, `\|`,
	`#`, `\#`,
	`@`, `\@`,
	`!`, `\!`,
)

// EscapeKey escapes the gjson/sjson path syntax in key.
func EscapeKey(key string) string {
	return keyEscaper.Replace(key)
}

func splitKey(key string) (section, option string, ok bool) {
	i := strings.IndexByte(key, '.')
	if i <= 0 || i == len(key)-1 {
		return "", "", false
	}

	return key[:i], key[i+1:], true
}

func setOption(values []byte, section, option, value, dataType string) ([]byte, error) {
	path := OptionPath(section, option)

	if typedSections[section] {
		switch dataType {
		case "boolean":
			return sjson.SetBytes(values, path, protocol.ParseBool(value))

		case "number":
			if gjson.Valid(value) && gjson.Parse(value).Type == gjson.Number {
				return sjson.SetRawBytes(values, path, []byte(value))
			}
		}
	}

	return sjson.SetBytes(values, path, value)
}

var _ Store = (*ConfigStore)(nil)

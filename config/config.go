package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"

	"mailsort/rules"
)

// Settings is the persisted storage area: the routing rules and the autosort
// flag. An empty Rules slice means "use the defaults derived from accounts".
type Settings struct {
	AutoSort bool         `json:"autoSort"`
	Rules    []rules.Rule `json:"rules,omitempty"`
}

// ChangeFunc receives the previous and the new settings after every
// successful save.
type ChangeFunc func(old, new Settings)

// Manager handles loading, saving and change notification for the settings
// file. All accessors return copies; the file on disk is the single source
// of truth between runs.
type Manager struct {
	filePath string

	mu          sync.RWMutex
	settings    Settings
	subscribers []ChangeFunc
}

// NewManager loads the settings file, creating it with defaults when it does
// not exist yet.
func NewManager(filePath string) (*Manager, error) {
	m := &Manager{filePath: filePath}
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads the settings file. A missing file initializes the default
// settings (autosort on, no rules) and writes them out.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			m.settings = Settings{AutoSort: true}
			return m.saveLocked()
		}
		return fmt.Errorf("reading settings file: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parsing settings file %s: %w", m.filePath, err)
	}
	m.settings = s
	return nil
}

func (m *Manager) saveLocked() error {
	data, err := json.MarshalIndent(m.settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.filePath, data, 0644)
}

// Settings returns a copy of the current settings.
func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.copyLocked()
}

func (m *Manager) copyLocked() Settings {
	s := m.settings
	if s.Rules != nil {
		s.Rules = append([]rules.Rule(nil), s.Rules...)
	}
	return s
}

// Rules returns the configured rule set; it satisfies rules.SettingsSource.
func (m *Manager) Rules() []rules.Rule {
	return m.Settings().Rules
}

// AutoSort reports whether automatic sorting of incoming mail is enabled.
func (m *Manager) AutoSort() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings.AutoSort
}

// SetAutoSort persists the autosort flag and notifies subscribers.
func (m *Manager) SetAutoSort(enabled bool) error {
	return m.update(func(s *Settings) { s.AutoSort = enabled })
}

// SetRules persists a new rule set and notifies subscribers.
func (m *Manager) SetRules(ruleSet []rules.Rule) error {
	return m.update(func(s *Settings) {
		s.Rules = append([]rules.Rule(nil), ruleSet...)
	})
}

// Subscribe registers a change listener. Listeners run on the mutating
// goroutine after the save succeeds, outside the manager's lock.
func (m *Manager) Subscribe(fn ChangeFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

func (m *Manager) update(mutate func(*Settings)) error {
	m.mu.Lock()
	old := m.copyLocked()
	mutate(&m.settings)
	if err := m.saveLocked(); err != nil {
		m.settings = old
		m.mu.Unlock()
		return err
	}
	updated := m.copyLocked()
	subscribers := append([]ChangeFunc(nil), m.subscribers...)
	m.mu.Unlock()

	log.Printf("Config: Changed settings (autoSort=%v, %d rules)", updated.AutoSort, len(updated.Rules))
	for _, fn := range subscribers {
		fn(old, updated)
	}
	return nil
}

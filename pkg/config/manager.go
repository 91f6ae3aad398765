package config

import (
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/darwinfi/evolve-go/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Manager owns loading, validating and saving a configuration file.
type Manager struct {
	mu     sync.RWMutex
	config *Config
	path   string
}

// NewManager creates a manager for the given configuration file path.
// An empty path yields a manager holding defaults only.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load reads the configuration file over the defaults and validates
// the result. With no path configured, the defaults are used as-is.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	config := DefaultConfig()

	if m.path != "" {
		data, err := os.ReadFile(m.path)
		if err != nil {
			return errors.Wrap(err, errors.ResourceNotFound, "failed to read config file")
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return errors.Wrap(err, errors.InvalidInput, "failed to parse config file")
		}
	}

	if err := Validate(config); err != nil {
		return err
	}

	m.config = config
	return nil
}

// Validate checks a configuration against its struct constraints.
func Validate(config *Config) error {
	if err := getValidator().Struct(config); err != nil {
		return errors.Wrap(err, errors.ValidationFailed, "config validation failed")
	}
	return nil
}

// Get returns the loaded configuration, or defaults if Load was never
// called.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return DefaultConfig()
	}
	return m.config
}

// Save writes the current configuration back to the manager's path.
func (m *Manager) Save() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.path == "" {
		return errors.New(errors.InvalidInput, "no config path set")
	}

	config := m.config
	if config == nil {
		config = DefaultConfig()
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to marshal config")
	}

	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.Unknown, "failed to write config file")
	}
	return nil
}

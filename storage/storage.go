package storage

import (
	"sync"

	"github.com/artgasca/protolink-modbus-bridge/config"
	"github.com/artgasca/protolink-modbus-bridge/logger"
	"github.com/artgasca/protolink-modbus-bridge/mapper"
)

// Backend persists readings.
type Backend interface {
	// Store persists one reading for the named device.
	Store(device string, reading mapper.Reading) error
	// Close releases the backend's resources.
	Close() error
}

// Manager fans readings out to every configured backend.
type Manager struct {
	backends []Backend
	mutex    sync.RWMutex
}

// NewManager creates a storage manager over the given backends.
func NewManager(backends []Backend) *Manager {
	return &Manager{backends: backends}
}

// NewFromConfig assembles a manager with every backend the configuration
// enables. A configuration with no backends yields a working manager that
// stores nothing.
func NewFromConfig(cfg config.StorageConfig) (*Manager, error) {
	var backends []Backend

	if cfg.File.Enabled {
		fs, err := NewFileStorage(cfg.File.Path)
		if err != nil {
			return nil, err
		}
		backends = append(backends, fs)
	}

	if cfg.Database.Enabled {
		db, err := NewDatabaseStorage(cfg.Database.Type, cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		backends = append(backends, db)
	}

	return NewManager(backends), nil
}

// Store hands the reading to every backend. A failing backend is logged
// and does not stop the others.
func (m *Manager) Store(device string, reading mapper.Reading) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, backend := range m.backends {
		if err := backend.Store(device, reading); err != nil {
			logger.Error("failed to store reading: %v", err)
		}
	}
}

// Close closes every backend.
func (m *Manager) Close() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for _, backend := range m.backends {
		if err := backend.Close(); err != nil {
			logger.Error("failed to close storage backend: %v", err)
		}
	}
}

// AddBackend registers an additional backend.
func (m *Manager) AddBackend(backend Backend) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.backends = append(m.backends, backend)
}

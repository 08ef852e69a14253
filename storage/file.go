package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/artgasca/protolink-modbus-bridge/logger"
	"github.com/artgasca/protolink-modbus-bridge/mapper"
)

// FileStorage writes each reading as a JSON file under
// <base>/<device>/<timestamp>.json.
type FileStorage struct {
	basePath string
}

// NewFileStorage creates the base directory if needed.
func NewFileStorage(basePath string) (*FileStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %v", basePath, err)
	}

	logger.Info("file storage initialized: %s", basePath)
	return &FileStorage{basePath: basePath}, nil
}

// Store writes one reading.
func (fs *FileStorage) Store(device string, reading mapper.Reading) error {
	deviceDir := filepath.Join(fs.basePath, device)
	if err := os.MkdirAll(deviceDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %v", deviceDir, err)
	}

	timestamp := time.Now().Format("20060102-150405.000")
	filename := filepath.Join(deviceDir, fmt.Sprintf("%s.json", timestamp))

	data, err := json.MarshalIndent(reading, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize reading: %v", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write file %s: %v", filename, err)
	}

	logger.Debug("stored reading to file: %s", filename)
	return nil
}

// Close implements Backend.
func (fs *FileStorage) Close() error {
	return nil
}

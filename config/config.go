package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/artgasca/protolink-modbus-bridge/logger"
)

// FrameTypeRTU is the only supported inbound frame framing.
const FrameTypeRTU = "rtu"

// Config is the application configuration.
type Config struct {
	MQTT    MQTTConfig              `mapstructure:"mqtt"`
	Decoder DecoderConfig           `mapstructure:"decoder"`
	Units   map[string]UnitConfig   `mapstructure:"units"`
	Enrich  map[string]EnrichConfig `mapstructure:"enrich"`
	Storage StorageConfig           `mapstructure:"storage"`
	Logger  LoggerConfig            `mapstructure:"logger"`
}

// MQTTConfig describes the broker connection and the bridge topics.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// TopicIn carries raw RTU frames from the field gateway.
	TopicIn string `mapstructure:"topic_in"`
	// TopicOut is the outbound topic template; "{device}" is replaced
	// with the device identifier extracted from the inbound topic.
	TopicOut string `mapstructure:"topic_out"`
	QoS      byte   `mapstructure:"qos"`
}

// DecoderConfig selects and tunes the frame decoder.
type DecoderConfig struct {
	FrameType string `mapstructure:"frame_type"`
	// ValidateCRC turns on real CRC-16/Modbus checking. Off by default:
	// the upstream bridge parsed but never verified the CRC, and turning
	// this on makes corrupted frames hard per-message errors.
	ValidateCRC bool `mapstructure:"validate_crc"`
}

// UnitConfig describes one bus device, keyed in Config.Units by the unit
// id as a decimal string.
type UnitConfig struct {
	Name      string                    `mapstructure:"name"`
	Functions map[string]FunctionConfig `mapstructure:"functions"`
}

// FunctionConfig holds the register table for one function code, keyed in
// UnitConfig.Functions by the function code as a decimal string.
type FunctionConfig struct {
	Registers []RegisterDefinition `mapstructure:"registers"`
}

// RegisterDefinition describes how one or two raw registers become a named
// value. Definitions apply in list order; a later definition with the same
// name overwrites an earlier one.
type RegisterDefinition struct {
	Index    int     `mapstructure:"index"`
	Name     string  `mapstructure:"name"`
	DataType string  `mapstructure:"datatype"`
	Scale    float64 `mapstructure:"scale"`
	// WordOrder is meaningful for float32 only: ABCD, DCBA, BADC or CDAB.
	WordOrder string `mapstructure:"word_order"`
	// Min/Max, when not both zero, bound the mapped value; out-of-range
	// readings are logged but still published.
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// EnrichConfig points at an optional per-device post-processing script.
type EnrichConfig struct {
	ScriptPath string `mapstructure:"script_path"`
	ScriptCode string `mapstructure:"script_code"`
}

// StorageConfig enables optional reading persistence.
type StorageConfig struct {
	File     FileStorageConfig     `mapstructure:"file"`
	Database DatabaseStorageConfig `mapstructure:"database"`
}

// FileStorageConfig configures JSON-file persistence.
type FileStorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// DatabaseStorageConfig configures database persistence.
type DatabaseStorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Type    string `mapstructure:"type"`
	DSN     string `mapstructure:"dsn"`
}

// LoggerConfig configures the application logger.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	Console    bool   `mapstructure:"console"`
}

// ChangeCallback is invoked with the re-read configuration whenever the
// config file changes on disk.
type ChangeCallback func(cfg *Config) error

// Load reads, normalizes and validates the configuration file.
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Normalize fills in defaults for fields the file may omit.
func (c *Config) Normalize() {
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "protolink-modbus-bridge"
	}
	if c.Decoder.FrameType == "" {
		c.Decoder.FrameType = FrameTypeRTU
	}
	for unitID, unit := range c.Units {
		for fc, fn := range unit.Functions {
			for i := range fn.Registers {
				// An unset scale means identity, not zeroing.
				if fn.Registers[i].Scale == 0 {
					fn.Registers[i].Scale = 1.0
				}
			}
			unit.Functions[fc] = fn
		}
		c.Units[unitID] = unit
	}
}

// Validate rejects configurations that indicate a deployment defect.
// Data-dependent conditions (unknown units, indices beyond a given frame)
// are deliberately not checked here; they degrade at mapping time.
func (c *Config) Validate() error {
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	if c.MQTT.TopicIn == "" {
		return fmt.Errorf("mqtt.topic_in is required")
	}
	if c.MQTT.TopicOut == "" {
		return fmt.Errorf("mqtt.topic_out is required")
	}
	if c.Decoder.FrameType != FrameTypeRTU {
		return fmt.Errorf("unsupported decoder.frame_type %q (only %q is implemented)", c.Decoder.FrameType, FrameTypeRTU)
	}

	for unitID, unit := range c.Units {
		for fc, fn := range unit.Functions {
			for i, def := range fn.Registers {
				if def.Name == "" {
					return fmt.Errorf("units.%s.functions.%s.registers[%d]: name is required", unitID, fc, i)
				}
				if def.Index < 0 {
					return fmt.Errorf("units.%s.functions.%s.registers[%d] (%s): index must be >= 0", unitID, fc, i, def.Name)
				}
				if (def.Min != 0 || def.Max != 0) && def.Min > def.Max {
					return fmt.Errorf("units.%s.functions.%s.registers[%d] (%s): min %v exceeds max %v", unitID, fc, i, def.Name, def.Min, def.Max)
				}
			}
		}
	}

	return nil
}

// Watch re-reads the configuration whenever the file changes and hands the
// result to callback. Reloads that fail normalization or validation are
// logged and dropped; the running configuration stays in effect.
func Watch(configPath string, callback ChangeCallback) error {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}

	viper.SetConfigFile(absPath)
	viper.WatchConfig()

	// Editors tend to fire several write events per save; debounce them.
	var lastChange time.Time
	const debounce = 2 * time.Second

	viper.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&fsnotify.Write != fsnotify.Write {
			return
		}
		now := time.Now()
		if now.Sub(lastChange) < debounce {
			return
		}
		lastChange = now

		logger.Info("config file changed: %s", e.Name)

		var newCfg Config
		if err := viper.Unmarshal(&newCfg); err != nil {
			logger.Error("failed to parse updated config: %v", err)
			return
		}
		newCfg.Normalize()
		if err := newCfg.Validate(); err != nil {
			logger.Error("updated config is invalid, keeping current one: %v", err)
			return
		}

		if err := callback(&newCfg); err != nil {
			logger.Error("failed to apply updated config: %v", err)
			return
		}

		logger.Info("config reloaded")
	})

	return nil
}

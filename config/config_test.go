package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const validConfig = `
mqtt:
  broker: tcp://localhost:1883
  topic_in: protolink/raw/+
  topic_out: protolink/decoded/{device}
units:
  "1":
    name: inverter
    functions:
      "3":
        registers:
          - index: 0
            name: voltage
            datatype: uint16
            scale: 0.1
          - index: 1
            name: power
            datatype: float32
            word_order: CDAB
`

func TestLoad_Valid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "protolink-modbus-bridge", cfg.MQTT.ClientID, "client id defaults")
	assert.Equal(t, FrameTypeRTU, cfg.Decoder.FrameType, "frame type defaults to rtu")
	assert.False(t, cfg.Decoder.ValidateCRC)

	unit, ok := cfg.Units["1"]
	require.True(t, ok)
	assert.Equal(t, "inverter", unit.Name)

	registers := unit.Functions["3"].Registers
	require.Len(t, registers, 2)
	assert.InDelta(t, 0.1, registers[0].Scale, 1e-9)
	assert.InDelta(t, 1.0, registers[1].Scale, 1e-9, "unset scale normalizes to 1")
}

func TestLoad_MissingBroker(t *testing.T) {
	_, err := Load(writeConfig(t, `
mqtt:
  topic_in: protolink/raw/+
  topic_out: protolink/decoded/{device}
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mqtt.broker")
}

func TestLoad_UnsupportedFrameType(t *testing.T) {
	_, err := Load(writeConfig(t, `
mqtt:
  broker: tcp://localhost:1883
  topic_in: protolink/raw/+
  topic_out: protolink/decoded/{device}
decoder:
  frame_type: ascii
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame_type")
}

func TestLoad_RegisterWithoutName(t *testing.T) {
	_, err := Load(writeConfig(t, `
mqtt:
  broker: tcp://localhost:1883
  topic_in: protolink/raw/+
  topic_out: protolink/decoded/{device}
units:
  "1":
    name: inverter
    functions:
      "3":
        registers:
          - index: 0
            datatype: uint16
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoad_NegativeIndex(t *testing.T) {
	_, err := Load(writeConfig(t, `
mqtt:
  broker: tcp://localhost:1883
  topic_in: protolink/raw/+
  topic_out: protolink/decoded/{device}
units:
  "1":
    name: inverter
    functions:
      "3":
        registers:
          - index: -2
            name: voltage
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index")
}

func TestValidate_MinAboveMax(t *testing.T) {
	cfg := &Config{
		MQTT:    MQTTConfig{Broker: "tcp://localhost:1883", TopicIn: "in", TopicOut: "out"},
		Decoder: DecoderConfig{FrameType: FrameTypeRTU},
		Units: map[string]UnitConfig{
			"1": {Name: "inverter", Functions: map[string]FunctionConfig{
				"3": {Registers: []RegisterDefinition{
					{Index: 0, Name: "voltage", Min: 260, Max: 180},
				}},
			}},
		},
	}

	require.Error(t, cfg.Validate())
}

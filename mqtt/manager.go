package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/artgasca/protolink-modbus-bridge/config"
	"github.com/artgasca/protolink-modbus-bridge/enrich"
	"github.com/artgasca/protolink-modbus-bridge/logger"
	"github.com/artgasca/protolink-modbus-bridge/mapper"
	"github.com/artgasca/protolink-modbus-bridge/modbus"
	"github.com/artgasca/protolink-modbus-bridge/storage"
	"github.com/artgasca/protolink-modbus-bridge/validator"
)

// Manager runs the bridge pipeline: inbound raw frames are decoded, mapped
// to named values, enriched, validated and republished as JSON readings.
type Manager struct {
	client  *Client
	cfg     config.MQTTConfig
	decoder modbus.Decoder
	mapper  *mapper.Mapper
	enrich  *enrich.Manager
	ranges  *validator.RangeValidator
	store   *storage.Manager

	// publish is swappable so the pipeline can be exercised without a broker.
	publish func(topic string, payload []byte) error
}

// NewManager wires the pipeline together.
func NewManager(cfg *config.Config, reg *mapper.Mapper, enricher *enrich.Manager, ranges *validator.RangeValidator, store *storage.Manager) (*Manager, error) {
	client, err := newClient(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MQTT client: %v", err)
	}

	return &Manager{
		client:  client,
		cfg:     cfg.MQTT,
		decoder: modbus.Decoder{ValidateCRC: cfg.Decoder.ValidateCRC},
		mapper:  reg,
		enrich:  enricher,
		ranges:  ranges,
		store:   store,
		publish: client.Publish,
	}, nil
}

// Start connects to the broker and subscribes to the inbound topic.
func (m *Manager) Start() error {
	if err := m.client.Connect(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %v", err)
	}

	if err := m.client.Subscribe(m.cfg.TopicIn, m.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %v", m.cfg.TopicIn, err)
	}

	return nil
}

// Stop disconnects from the broker.
func (m *Manager) Stop() {
	m.client.Disconnect()
}

// handleMessage processes one inbound raw frame. Per-message failures are
// logged and dropped; they never affect subsequent messages.
func (m *Manager) handleMessage(topic string, payload []byte) {
	frame, err := m.decoder.Decode(payload)
	if err != nil {
		logger.Error("dropping frame from %s: %v", topic, err)
		return
	}

	if frame.LengthMismatch {
		logger.Warn("frame from unit %d declares %d data bytes but payload is %d bytes; decoding anyway",
			frame.UnitID, len(frame.Registers)*2, len(payload))
	}

	values, device := m.mapper.Map(frame)
	if device == "" {
		device = fmt.Sprintf("unit_%d", frame.UnitID)
	}

	values = m.enrich.Apply(device, values, frame)

	for _, v := range m.ranges.Check(device, values) {
		logger.Warn("%s: value %s=%v outside range [%v, %v]", device, v.Name, v.Value, v.Min, v.Max)
	}

	reading := mapper.Reading{
		Timestamp:    time.Now().UnixMilli(),
		UnitID:       frame.UnitID,
		FunctionCode: frame.FunctionCode,
		Device:       device,
		Registers:    frame.Registers,
		Values:       values,
		CRCOK:        frame.CRCOK,
	}

	data, err := json.Marshal(reading)
	if err != nil {
		logger.Error("failed to serialize reading for %s: %v", device, err)
		return
	}

	deviceID := DeviceIDFromTopic(topic)
	if deviceID == "" {
		deviceID = device
	}

	outTopic := OutboundTopic(m.cfg.TopicOut, deviceID)
	if err := m.publish(outTopic, data); err != nil {
		logger.Error("failed to publish reading to %s: %v", outTopic, err)
	}

	if m.store != nil {
		m.store.Store(device, reading)
	}
}

// Package enrich runs optional per-device JavaScript hooks over mapped
// values before they are published. A hook script defines
//
//	function enrich(values, frame) { ... return values; }
//
// and may add derived values or rewrite existing ones. Devices without a
// hook pass through untouched, and a failing hook degrades to the original
// values rather than dropping the reading.
package enrich

import (
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/dop251/goja"

	"github.com/artgasca/protolink-modbus-bridge/config"
	"github.com/artgasca/protolink-modbus-bridge/logger"
	"github.com/artgasca/protolink-modbus-bridge/modbus"
)

// Manager holds the per-device hooks.
type Manager struct {
	hooks map[string]*hook
	mutex sync.RWMutex
}

type hook struct {
	vm         *goja.Runtime
	fn         goja.Callable
	scriptPath string
	// goja runtimes are not goroutine-safe; calls are serialized per hook.
	mu sync.Mutex
}

// NewManager compiles one hook per configured device name.
func NewManager(configs map[string]config.EnrichConfig) (*Manager, error) {
	m := &Manager{hooks: make(map[string]*hook)}

	for device, cfg := range configs {
		h, err := newHook(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build enrich hook for device %s: %v", device, err)
		}
		m.hooks[device] = h
		logger.Info("loaded enrich hook for device %s", device)
	}

	return m, nil
}

func newHook(cfg config.EnrichConfig) (*hook, error) {
	scriptCode := cfg.ScriptCode
	if scriptCode == "" {
		if cfg.ScriptPath == "" {
			return nil, fmt.Errorf("neither script_code nor script_path provided")
		}
		scriptBytes, err := os.ReadFile(cfg.ScriptPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read script file %s: %v", cfg.ScriptPath, err)
		}
		scriptCode = string(scriptBytes)
	}

	vm := goja.New()

	_ = vm.Set("log", func(msg string) {
		logger.Info("[JS] %s", msg)
	})

	_ = vm.Set("round", func(value float64, decimals int) float64 {
		factor := math.Pow(10, float64(decimals))
		return math.Round(value*factor) / factor
	})

	_ = vm.Set("clamp", func(value, min, max float64) float64 {
		if value < min {
			return min
		}
		if value > max {
			return max
		}
		return value
	})

	if _, err := vm.RunString(scriptCode); err != nil {
		return nil, fmt.Errorf("failed to run script: %v", err)
	}

	fn, ok := goja.AssertFunction(vm.Get("enrich"))
	if !ok {
		return nil, fmt.Errorf("script does not define an 'enrich' function")
	}

	return &hook{vm: vm, fn: fn, scriptPath: cfg.ScriptPath}, nil
}

// Apply runs the device's hook over the mapped values. Missing hooks are a
// no-op; script failures log and return the input unchanged.
func (m *Manager) Apply(device string, values map[string]float64, frame *modbus.RawFrame) map[string]float64 {
	m.mutex.RLock()
	h, ok := m.hooks[device]
	m.mutex.RUnlock()

	if !ok {
		return values
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	registers := make([]int, len(frame.Registers))
	for i, reg := range frame.Registers {
		registers[i] = int(reg)
	}
	frameInfo := map[string]interface{}{
		"unit_id":       int(frame.UnitID),
		"function_code": int(frame.FunctionCode),
		"registers":     registers,
		"crc_ok":        frame.CRCOK,
	}

	result, err := h.fn(goja.Undefined(), h.vm.ToValue(values), h.vm.ToValue(frameInfo))
	if err != nil {
		logger.Error("enrich hook for %s failed: %v", device, err)
		return values
	}

	enriched, err := toValueMap(result.Export())
	if err != nil {
		logger.Error("enrich hook for %s returned unusable data: %v", device, err)
		return values
	}

	return enriched
}

// toValueMap converts the exported script result back into a value map.
func toValueMap(exported interface{}) (map[string]float64, error) {
	raw, ok := exported.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected an object of numbers, got %T", exported)
	}

	values := make(map[string]float64, len(raw))
	for name, v := range raw {
		switch n := v.(type) {
		case float64:
			values[name] = n
		case int64:
			values[name] = float64(n)
		case int:
			values[name] = float64(n)
		default:
			logger.Warn("enrich result field %s is not a number (%T), dropped", name, v)
		}
	}
	return values, nil
}

// Reload swaps the hook for one device, or installs a new one.
func (m *Manager) Reload(device string, cfg config.EnrichConfig) error {
	h, err := newHook(cfg)
	if err != nil {
		return fmt.Errorf("failed to build enrich hook: %v", err)
	}

	m.mutex.Lock()
	m.hooks[device] = h
	m.mutex.Unlock()

	logger.Info("reloaded enrich hook for device %s", device)
	return nil
}

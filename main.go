package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/artgasca/protolink-modbus-bridge/config"
	"github.com/artgasca/protolink-modbus-bridge/enrich"
	"github.com/artgasca/protolink-modbus-bridge/logger"
	"github.com/artgasca/protolink-modbus-bridge/mapper"
	"github.com/artgasca/protolink-modbus-bridge/mqtt"
	"github.com/artgasca/protolink-modbus-bridge/storage"
	"github.com/artgasca/protolink-modbus-bridge/validator"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := logger.InitFromConfig(cfg.Logger.Level, cfg.Logger.FilePath, cfg.Logger.MaxSize, cfg.Logger.MaxBackups, cfg.Logger.Console); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Close()

	registerMapper := mapper.New(cfg.Units)
	ranges := validator.NewRangeValidator(cfg.Units)

	enricher, err := enrich.NewManager(cfg.Enrich)
	if err != nil {
		logger.Error("failed to initialize enrich hooks: %v", err)
		os.Exit(1)
	}

	store, err := storage.NewFromConfig(cfg.Storage)
	if err != nil {
		logger.Error("failed to initialize storage: %v", err)
		os.Exit(1)
	}

	manager, err := mqtt.NewManager(cfg, registerMapper, enricher, ranges, store)
	if err != nil {
		logger.Error("failed to initialize MQTT manager: %v", err)
		os.Exit(1)
	}

	if err := manager.Start(); err != nil {
		logger.Error("failed to start MQTT manager: %v", err)
		os.Exit(1)
	}

	err = config.Watch(*configPath, func(newCfg *config.Config) error {
		for device, hookCfg := range newCfg.Enrich {
			if err := enricher.Reload(device, hookCfg); err != nil {
				logger.Error("failed to reload enrich hook for %s: %v", device, err)
			}
		}
		// MQTT, unit-table and storage changes take effect after a restart.
		return nil
	})
	if err != nil {
		logger.Warn("failed to watch config file: %v", err)
	}

	logger.Info("bridge started, waiting for frames on %s", cfg.MQTT.TopicIn)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	manager.Stop()
	store.Close()
	logger.Info("bridge stopped")
}

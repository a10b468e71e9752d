package server

import (
	"context"
	"fmt"

	"github.com/oshokin/olt-alarms/internal/config"
	"github.com/oshokin/olt-alarms/internal/emitter"
	"github.com/oshokin/olt-alarms/internal/logger"
	"github.com/oshokin/olt-alarms/internal/platform"
	"github.com/oshokin/olt-alarms/internal/repository/registry"
	"github.com/oshokin/olt-alarms/internal/service/alarms"
)

// service bundles the alarm pipeline of one OLT.
// It is unexported to keep the transport decoupled from the wiring.
type service struct {
	// manager routes indications to handlers.
	manager *alarms.Manager
	// feed publishes emitted alarms to Watch subscribers.
	feed *emitter.Broadcaster
	// registry resolves ONU identities.
	registry *registry.MemoryRegistry
}

// newService builds the registry, platform mapper, emitters and manager from cfg.
func newService(ctx context.Context, cfg *config.Config) (*service, error) {
	reg, err := loadRegistry(ctx, cfg.Registry.File)
	if err != nil {
		return nil, err
	}

	source := emitter.Source{
		DeviceID:        cfg.Device.ID,
		LogicalDeviceID: cfg.Device.LogicalDeviceID,
		SerialNumber:    cfg.Device.SerialNumber,
	}

	feed := emitter.NewBroadcaster(source, emitter.DefaultSubscriberBuffer)

	manager, err := alarms.NewManager(
		cfg.Device.ID,
		reg,
		platform.NewOpenOLT(cfg.Device.PonPorts),
		emitter.NewMulti(emitter.NewLog(source), feed),
		alarms.WithSuppression(cfg.SuppressOltLosClear()),
	)
	if err != nil {
		return nil, fmt.Errorf("create alarm manager: %w", err)
	}

	return &service{
		manager:  manager,
		feed:     feed,
		registry: reg,
	}, nil
}

// loadRegistry reads the registry file; without one every ONU stays unresolved.
func loadRegistry(ctx context.Context, path string) (*registry.MemoryRegistry, error) {
	if path == "" {
		logger.Warn(ctx, "No device registry configured, ONU identities will be unresolved")

		return registry.NewMemoryRegistry()
	}

	reg, err := registry.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load device registry: %w", err)
	}

	logger.InfoKV(ctx, "Device registry loaded", "file", path, "devices", len(reg.Devices()))

	return reg, nil
}

// configureLogging applies the configured level and encoder to the global logger.
func configureLogging(cfg config.LoggingConfig) {
	if lvl, ok := logger.ParseLogLevel(cfg.Level); ok {
		logger.SetLevel(lvl)
	}

	if cfg.Format != "" {
		logger.SetLogger(logger.New(logger.ParseFormat(cfg.Format)))
	}
}

package daemon

import (
	"github.com/go-logr/logr"
	"github.com/kardianos/service"

	"github.com/wifireconnect/wifireconnect-go/pkg/config"
	"github.com/wifireconnect/wifireconnect-go/pkg/netwatch"
	"github.com/wifireconnect/wifireconnect-go/pkg/nm"
	"github.com/wifireconnect/wifireconnect-go/pkg/reconnect"
)

// ServiceName is the name registered with the service manager.
const ServiceName = "wifireconnect"

// ServiceConfig describes the service for installation. The service runs
// "<executable> run" from workDir, where config.json and the log live.
func ServiceConfig(workDir string) *service.Config {
	return &service.Config{
		Name:             ServiceName,
		DisplayName:      "WiFi Reconnect",
		Description:      "Keeps this device connected to its configured WiFi network.",
		Arguments:        []string{"run"},
		WorkingDirectory: workDir,
		Dependencies:     []string{"After=NetworkManager.service", "Wants=NetworkManager.service"},
	}
}

// NewEngine wires NetworkManager and the status sources into an engine
// configured by cfg.
func NewEngine(cfg *config.Config, runner nm.Runner, logger logr.Logger) (*reconnect.Engine, error) {
	client := nm.NewClient(runner, nm.WithClientLogger(logger.WithName("nm")))

	status := netwatch.NewMultiSource(logger.WithName("netwatch"),
		nm.NewMonitor(runner, nm.WithMonitorLogger(logger.WithName("nm.monitor"))),
		&netwatch.NetlinkSource{Log: logger.WithName("netlink")},
		&netwatch.TickerSource{Interval: cfg.RecheckInterval},
	)

	deps := reconnect.Deps{
		Status:       status,
		Connectivity: client,
		Adapters:     client,
		Agent:        client,
	}
	opts := append(cfg.EngineOptions(), reconnect.WithLogger(logger.WithName("reconnect")))
	return reconnect.New(cfg.Engine(), deps, opts...)
}

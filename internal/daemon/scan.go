package daemon

import (
	"context"
	"fmt"

	"github.com/wifireconnect/wifireconnect-go/pkg/reconnect"
)

// ScanResult is what the engine would see on its next cycle.
type ScanResult struct {
	SSID     string           `yaml:"ssid"`
	Adapters []AdapterScan    `yaml:"adapters"`
	Selected *SelectedNetwork `yaml:"selected,omitempty"`
}

// AdapterScan is one adapter's scan report.
type AdapterScan struct {
	Name     string                     `yaml:"name"`
	Networks []reconnect.ScannedNetwork `yaml:"networks"`
	Error    string                     `yaml:"error,omitempty"`
}

// SelectedNetwork is the candidate a cycle would connect to.
type SelectedNetwork struct {
	Adapter string `yaml:"adapter"`

	reconnect.ScannedNetwork `yaml:",inline"`
}

// Scan reports every adapter's visible networks and the candidate that
// would be chosen for ssid. iface pins the adapter as the engine does.
func Scan(ctx context.Context, provider reconnect.AdapterProvider, ssid, iface string) (*ScanResult, error) {
	adapters, err := provider.ListAdapters(ctx)
	if err != nil {
		return nil, fmt.Errorf("list wifi adapters: %w", err)
	}
	if len(adapters) == 0 {
		return nil, reconnect.ErrNoAdapter
	}

	res := &ScanResult{SSID: ssid}
	for i, a := range adapters {
		scan := AdapterScan{Name: a.Name()}
		report, err := a.ScanReport(ctx)
		if err != nil {
			scan.Error = err.Error()
		}
		scan.Networks = report
		res.Adapters = append(res.Adapters, scan)

		if res.Selected != nil || err != nil {
			continue
		}
		if iface != "" && a.Name() != iface {
			continue
		}
		if iface == "" && i != 0 {
			continue
		}
		if best, ok := reconnect.SelectCandidate(report, ssid); ok {
			res.Selected = &SelectedNetwork{Adapter: a.Name(), ScannedNetwork: best}
		}
	}
	return res, nil
}

package daemon

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/wifireconnect/wifireconnect-go/pkg/reconnect"
)

type stubAdapter struct {
	name   string
	report []reconnect.ScannedNetwork
	err    error
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) ScanReport(context.Context) ([]reconnect.ScannedNetwork, error) {
	return a.report, a.err
}

type stubProvider struct {
	adapters []reconnect.Adapter
	err      error
}

func (p *stubProvider) ListAdapters(context.Context) ([]reconnect.Adapter, error) {
	return p.adapters, p.err
}

func TestScan(t *testing.T) {
	wlan0 := &stubAdapter{name: "wlan0", report: []reconnect.ScannedNetwork{
		{SSID: "Home", BSSID: "01", SignalDBm: -80},
		{SSID: "Home", BSSID: "02", SignalDBm: -50},
	}}
	wlan1 := &stubAdapter{name: "wlan1", report: []reconnect.ScannedNetwork{
		{SSID: "Home", BSSID: "03", SignalDBm: -30},
	}}
	provider := &stubProvider{adapters: []reconnect.Adapter{wlan0, wlan1}}

	t.Run("FirstAdapter", func(t *testing.T) {
		res, err := Scan(context.Background(), provider, "Home", "")
		require.NoError(t, err)
		require.Len(t, res.Adapters, 2)
		require.NotNil(t, res.Selected)
		assert.Equal(t, "wlan0", res.Selected.Adapter)
		assert.Equal(t, "02", res.Selected.BSSID)
	})

	t.Run("PinnedAdapter", func(t *testing.T) {
		res, err := Scan(context.Background(), provider, "Home", "wlan1")
		require.NoError(t, err)
		require.NotNil(t, res.Selected)
		assert.Equal(t, "wlan1", res.Selected.Adapter)
		assert.Equal(t, "03", res.Selected.BSSID)
	})

	t.Run("NoMatch", func(t *testing.T) {
		res, err := Scan(context.Background(), provider, "Office", "")
		require.NoError(t, err)
		assert.Nil(t, res.Selected)
	})

	t.Run("AdapterError", func(t *testing.T) {
		broken := &stubProvider{adapters: []reconnect.Adapter{&stubAdapter{name: "wlan0", err: errors.New("device busy")}}}
		res, err := Scan(context.Background(), broken, "Home", "")
		require.NoError(t, err)
		assert.Equal(t, "device busy", res.Adapters[0].Error)
		assert.Nil(t, res.Selected)
	})

	t.Run("NoAdapters", func(t *testing.T) {
		_, err := Scan(context.Background(), &stubProvider{}, "Home", "")
		assert.ErrorIs(t, err, reconnect.ErrNoAdapter)
	})

	t.Run("YAML", func(t *testing.T) {
		res, err := Scan(context.Background(), provider, "Home", "")
		require.NoError(t, err)

		out, err := yaml.Marshal(res)
		require.NoError(t, err)
		assert.Contains(t, string(out), "selected:\n    adapter: wlan0\n")
		assert.Contains(t, string(out), "signal_dbm: -50")
	})
}

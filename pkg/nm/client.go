package nm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-logr/logr"

	"github.com/wifireconnect/wifireconnect-go/pkg/reconnect"
)

// Client talks to NetworkManager. It implements reconnect.ConnectivityQuery,
// reconnect.AdapterProvider and reconnect.ConnectionAgent.
type Client struct {
	run Runner
	log logr.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithClientLogger sets the logger for command tracing.
func WithClientLogger(log logr.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient returns a Client that runs nmcli through run.
func NewClient(run Runner, opts ...ClientOption) *Client {
	c := &Client{run: run, log: logr.Discard()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// output runs nmcli and maps exit code 8 to ErrNotRunning.
func (c *Client) output(ctx context.Context, args ...string) ([]byte, error) {
	c.log.V(1).Info("Running nmcli", "args", strings.Join(args, " "))
	out, err := c.run.Output(ctx, args...)
	var ce *CommandError
	if errors.As(err, &ce) && ce.ExitCode == exitNotRunning {
		return out, fmt.Errorf("%w: %w", ErrNotRunning, err)
	}
	return out, err
}

// CurrentLevel implements reconnect.ConnectivityQuery. ok is false when
// NetworkManager has no active default connection.
func (c *Client) CurrentLevel(ctx context.Context) (reconnect.ConnectivityLevel, bool, error) {
	out, err := c.output(ctx, "-t", "networking", "connectivity", "check")
	if err != nil {
		return reconnect.LevelNone, false, err
	}

	switch state := strings.TrimSpace(string(out)); state {
	case "full":
		return reconnect.LevelInternetAccess, true, nil
	case "portal":
		return reconnect.LevelConstrainedInternetAccess, true, nil
	case "limited":
		return reconnect.LevelLocalAccess, true, nil
	case "none", "unknown":
		return reconnect.LevelNone, false, nil
	default:
		return reconnect.LevelNone, false, fmt.Errorf("unexpected connectivity state %q", state)
	}
}

// ListAdapters implements reconnect.AdapterProvider. Only managed WiFi
// devices are returned, in nmcli's order.
func (c *Client) ListAdapters(ctx context.Context) ([]reconnect.Adapter, error) {
	out, err := c.output(ctx, "-t", "-f", "DEVICE,TYPE,STATE", "device", "status")
	if err != nil {
		return nil, err
	}

	var adapters []reconnect.Adapter
	for _, rec := range terseRecords(out, 3) {
		name, typ, state := rec[0], rec[1], rec[2]
		if typ != "wifi" || state == "unmanaged" || state == "unavailable" {
			continue
		}
		adapters = append(adapters, &Device{name: name, client: c})
	}
	return adapters, nil
}

// Scan lists the networks visible to device, requesting a rescan when
// NetworkManager's cached list is stale. Hidden networks are skipped.
func (c *Client) Scan(ctx context.Context, device string) ([]reconnect.ScannedNetwork, error) {
	out, err := c.output(ctx, "-t", "-f", "SSID,BSSID,SIGNAL", "device", "wifi", "list", "ifname", device, "--rescan", "auto")
	if err != nil {
		return nil, err
	}

	var report []reconnect.ScannedNetwork
	for _, rec := range terseRecords(out, 3) {
		if rec[0] == "" {
			continue
		}
		pct, err := strconv.Atoi(rec[2])
		if err != nil {
			c.log.V(1).Info("Skipping scan entry with bad signal", "bssid", rec[1], "signal", rec[2])
			continue
		}
		report = append(report, reconnect.ScannedNetwork{
			SSID:      rec[0],
			BSSID:     rec[1],
			SignalDBm: signalToDBm(pct),
			Quality:   clampPercent(pct),
		})
	}
	return report, nil
}

var activatedUUID = regexp.MustCompile(`'([0-9a-fA-F-]{36})'`)

// Connect implements reconnect.ConnectionAgent. Rejections reported by
// nmcli become a failed Outcome; anything else is an error.
//
// The password is answered on stdin to nmcli's --ask prompt rather than
// passed as an argument, where other local users could read it.
func (c *Client) Connect(ctx context.Context, adapter reconnect.Adapter, network reconnect.ScannedNetwork, password string, kind reconnect.ReconnectionKind) (reconnect.Outcome, error) {
	args := []string{"device", "wifi", "connect", network.SSID, "ifname", adapter.Name()}
	if network.BSSID != "" {
		args = append(args, "bssid", network.BSSID)
	}

	var (
		out []byte
		err error
	)
	if password != "" {
		out, err = c.run.Feed(ctx, password+"\n", append([]string{"--ask"}, args...)...)
	} else {
		out, err = c.run.Output(ctx, args...)
	}
	if err != nil {
		return c.connectFailure(err)
	}

	if kind == reconnect.KindManual {
		if err := c.disableAutoconnect(ctx, string(out), network.SSID); err != nil {
			return reconnect.Outcome{}, err
		}
	}
	return reconnect.Outcome{Status: reconnect.StatusSuccess}, nil
}

func (c *Client) connectFailure(err error) (reconnect.Outcome, error) {
	var ce *CommandError
	if !errors.As(err, &ce) {
		return reconnect.Outcome{}, err
	}

	switch ce.ExitCode {
	case exitTimeout:
		return reconnect.Outcome{Status: reconnect.StatusTimeout, Reason: ce.Stderr}, nil
	case exitActivationFailed:
		if mentionsSecrets(ce.Stderr) {
			return reconnect.Outcome{Status: reconnect.StatusInvalidCredential, Reason: ce.Stderr}, nil
		}
		return reconnect.Outcome{Status: reconnect.StatusUnspecifiedFailure, Reason: ce.Stderr}, nil
	case exitConnectionNotFound:
		return reconnect.Outcome{Status: reconnect.StatusNetworkNotAvailable, Reason: ce.Stderr}, nil
	case exitNotRunning:
		return reconnect.Outcome{}, fmt.Errorf("%w: %w", ErrNotRunning, ce)
	default:
		return reconnect.Outcome{}, ce
	}
}

// disableAutoconnect keeps a manually created profile from being activated
// by NetworkManager on its own.
func (c *Client) disableAutoconnect(ctx context.Context, activated, ssid string) error {
	id := []string{"id", ssid}
	if m := activatedUUID.FindStringSubmatch(activated); m != nil {
		id = []string{"uuid", m[1]}
	}
	args := append([]string{"connection", "modify"}, id...)
	args = append(args, "connection.autoconnect", "no")
	if _, err := c.output(ctx, args...); err != nil {
		return fmt.Errorf("disable autoconnect for %s: %w", ssid, err)
	}
	return nil
}

func mentionsSecrets(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "secrets") || strings.Contains(s, "password")
}

// Device is a WiFi adapter managed by NetworkManager.
type Device struct {
	name   string
	client *Client
}

// Name returns the kernel interface name.
func (d *Device) Name() string { return d.name }

// ScanReport implements reconnect.Adapter.
func (d *Device) ScanReport(ctx context.Context) ([]reconnect.ScannedNetwork, error) {
	return d.client.Scan(ctx, d.name)
}

var (
	_ reconnect.ConnectivityQuery = (*Client)(nil)
	_ reconnect.AdapterProvider   = (*Client)(nil)
	_ reconnect.ConnectionAgent   = (*Client)(nil)
	_ reconnect.Adapter           = (*Device)(nil)
)

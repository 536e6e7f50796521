package reconnect

import (
	"context"
	"fmt"
)

// ConnectivityLevel classifies how far the current default network path reaches.
// Levels are ordered; InternetAccess is the only healthy one.
type ConnectivityLevel uint8

const (
	// LevelNone indicates no connectivity.
	LevelNone ConnectivityLevel = iota

	// LevelLocalAccess indicates a local segment only.
	LevelLocalAccess

	// LevelConstrainedInternetAccess indicates limited internet access,
	// typically a captive portal.
	LevelConstrainedInternetAccess

	// LevelInternetAccess indicates full internet access.
	LevelInternetAccess
)

// String returns a human-readable level name.
func (l ConnectivityLevel) String() string {
	switch l {
	case LevelNone:
		return "None"
	case LevelLocalAccess:
		return "LocalAccess"
	case LevelConstrainedInternetAccess:
		return "ConstrainedInternetAccess"
	case LevelInternetAccess:
		return "InternetAccess"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(l))
	}
}

// ScannedNetwork is one entry of an adapter's scan report. Quality is the
// driver's 0..100 signal quality when the provider reports one; it ranks
// entries whose SignalDBm rounds to the same value.
type ScannedNetwork struct {
	SSID      string `yaml:"ssid"`
	BSSID     string `yaml:"bssid,omitempty"`
	SignalDBm int    `yaml:"signal_dbm"`
	Quality   int    `yaml:"quality,omitempty"`
}

// ConnectionStatus is the result kind of a connection attempt.
type ConnectionStatus uint8

const (
	StatusSuccess ConnectionStatus = iota
	StatusUnspecifiedFailure
	StatusAccessRevoked
	StatusInvalidCredential
	StatusNetworkNotAvailable
	StatusTimeout
	StatusUnsupportedAuthenticationProtocol
)

// String returns the status name.
func (s ConnectionStatus) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusUnspecifiedFailure:
		return "UnspecifiedFailure"
	case StatusAccessRevoked:
		return "AccessRevoked"
	case StatusInvalidCredential:
		return "InvalidCredential"
	case StatusNetworkNotAvailable:
		return "NetworkNotAvailable"
	case StatusTimeout:
		return "Timeout"
	case StatusUnsupportedAuthenticationProtocol:
		return "UnsupportedAuthenticationProtocol"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// Outcome is the result of one connection attempt.
type Outcome struct {
	Status ConnectionStatus

	// Reason carries backend detail for failures. Optional.
	Reason string
}

// Succeeded reports whether the attempt associated successfully.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// ReconnectionKind tells the agent whether the platform should keep the
// association alive on its own after this attempt.
type ReconnectionKind uint8

const (
	// KindAutomatic lets the platform reconnect automatically.
	KindAutomatic ReconnectionKind = iota

	// KindManual disables platform auto-connect for the resulting profile.
	KindManual
)

// String returns the kind name.
func (k ReconnectionKind) String() string {
	if k == KindManual {
		return "Manual"
	}
	return "Automatic"
}

// StatusSource fires notify whenever any interface's connectivity changes.
// Subscribe must not block; delivery stops when ctx is done.
// notify may be called from any goroutine and carries no payload.
type StatusSource interface {
	Subscribe(ctx context.Context, notify func()) error
}

// ConnectivityQuery reports the level of the current default connection
// profile. ok is false when no such profile exists.
type ConnectivityQuery interface {
	CurrentLevel(ctx context.Context) (level ConnectivityLevel, ok bool, err error)
}

// Adapter is a WiFi adapter able to report visible networks.
type Adapter interface {
	Name() string
	ScanReport(ctx context.Context) ([]ScannedNetwork, error)
}

// AdapterProvider enumerates WiFi adapters.
type AdapterProvider interface {
	ListAdapters(ctx context.Context) ([]Adapter, error)
}

// ConnectionAgent associates an adapter with a network.
//
// Rejections (bad credential, timeout, network gone) are reported through
// the Outcome. An error means the attempt could not be classified.
type ConnectionAgent interface {
	Connect(ctx context.Context, adapter Adapter, network ScannedNetwork, password string, kind ReconnectionKind) (Outcome, error)
}

// Deps bundles the platform capabilities the engine consumes.
type Deps struct {
	Status       StatusSource
	Connectivity ConnectivityQuery
	Adapters     AdapterProvider
	Agent        ConnectionAgent
}

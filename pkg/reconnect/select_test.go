package reconnect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectCandidate(t *testing.T) {
	tests := []struct {
		name   string
		report []ScannedNetwork
		want   ScannedNetwork
		wantOK bool
	}{
		{
			name:   "EmptyReport",
			report: nil,
		},
		{
			name: "NoMatch",
			report: []ScannedNetwork{
				{SSID: "Office", SignalDBm: -30},
				{SSID: "HOME", SignalDBm: -20},
				{SSID: "Home ", SignalDBm: -20},
			},
		},
		{
			name:   "SingleMatch",
			report: []ScannedNetwork{{SSID: "Home", SignalDBm: -90}},
			want:   ScannedNetwork{SSID: "Home", SignalDBm: -90},
			wantOK: true,
		},
		{
			name: "StrongestWins",
			report: []ScannedNetwork{
				{SSID: "Home", BSSID: "01", SignalDBm: -80},
				{SSID: "Home", BSSID: "02", SignalDBm: -40},
				{SSID: "Office", BSSID: "03", SignalDBm: -30},
			},
			want:   ScannedNetwork{SSID: "Home", BSSID: "02", SignalDBm: -40},
			wantOK: true,
		},
		{
			name: "TieKeepsReportOrder",
			report: []ScannedNetwork{
				{SSID: "Home", BSSID: "01", SignalDBm: -70},
				{SSID: "Home", BSSID: "02", SignalDBm: -50},
				{SSID: "Home", BSSID: "03", SignalDBm: -50},
				{SSID: "Home", BSSID: "04", SignalDBm: -50},
			},
			want:   ScannedNetwork{SSID: "Home", BSSID: "02", SignalDBm: -50},
			wantOK: true,
		},
		{
			name: "QualityBreaksEqualDBm",
			report: []ScannedNetwork{
				{SSID: "Home", BSSID: "01", SignalDBm: -40, Quality: 99},
				{SSID: "Home", BSSID: "02", SignalDBm: -40, Quality: 100},
			},
			want:   ScannedNetwork{SSID: "Home", BSSID: "02", SignalDBm: -40, Quality: 100},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectCandidate(tt.report, "Home")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectCandidateDoesNotReorderReport(t *testing.T) {
	report := []ScannedNetwork{
		{SSID: "Home", BSSID: "01", SignalDBm: -80},
		{SSID: "Home", BSSID: "02", SignalDBm: -40},
	}
	_, _ = SelectCandidate(report, "Home")
	assert.Equal(t, "01", report[0].BSSID)
}

package reconnect

import (
	"cmp"
	"slices"
)

// SelectCandidate picks the network to connect to from a scan report.
//
// Only entries whose SSID equals ssid exactly are considered. Among them the
// strongest signal wins, then the higher quality; fully equal entries keep
// report order. ok is false when nothing matches.
func SelectCandidate(report []ScannedNetwork, ssid string) (best ScannedNetwork, ok bool) {
	matches := make([]ScannedNetwork, 0, len(report))
	for _, n := range report {
		if n.SSID == ssid {
			matches = append(matches, n)
		}
	}
	if len(matches) == 0 {
		return ScannedNetwork{}, false
	}

	slices.SortStableFunc(matches, func(a, b ScannedNetwork) int {
		if c := cmp.Compare(b.SignalDBm, a.SignalDBm); c != 0 {
			return c
		}
		return cmp.Compare(b.Quality, a.Quality)
	})
	return matches[0], true
}

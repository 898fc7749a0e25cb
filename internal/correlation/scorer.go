package correlation

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"intercept/internal/observation"
)

// Params holds the tunable inputs to pairwise scoring.
type Params struct {
	TimeWindowSeconds int
	RSSIThreshold     int
}

// Evidence weights. Components are summed and the total clamped to 1.0; no
// individual component is clamped, so partial signals can over-subscribe up
// to the cap.
const (
	timingWeight       = 0.5
	overlapCredit      = 0.25
	manufacturerWeight = 0.2
	manufacturerNear   = 0.1
	ouiWeight          = 0.15
	rssiWeight         = 0.1
	namingWeight       = 0.05

	ouiPrefixLen          = 8
	manufacturerPrefixLen = 5
)

// Score computes a correlation confidence in [0, 1] for one WiFi/Bluetooth
// observation pair plus a human-readable reason listing the contributing
// evidence. Pure function of its inputs.
func Score(wifi, bt observation.Observation, p Params) (float64, string) {
	confidence := 0.0
	var reasons []string

	window := float64(p.TimeWindowSeconds)
	deltaT := wifi.FirstSeen.Sub(bt.FirstSeen).Abs().Seconds()
	if window > 0 && deltaT <= window {
		// Linear decay from full credit at deltaT=0 to zero at the window edge.
		confidence += timingWeight * (1 - deltaT/window)
		reasons = append(reasons, fmt.Sprintf("appeared within %ds", int(deltaT)))
	} else if intervalsOverlap(wifi, bt) {
		// Flat partial credit for co-presence outside the tight window.
		confidence += overlapCredit
	}

	if strings.EqualFold(prefixOf(wifi.Identifier, ouiPrefixLen), prefixOf(bt.Identifier, ouiPrefixLen)) {
		confidence += ouiWeight
		reasons = append(reasons, "same OUI")
	}

	if wifi.Manufacturer != "" && bt.Manufacturer != "" {
		wifiMfg := fold(wifi.Manufacturer)
		btMfg := fold(bt.Manufacturer)
		switch {
		case wifiMfg == btMfg:
			confidence += manufacturerWeight
			reasons = append(reasons, fmt.Sprintf("same manufacturer (%s)", wifi.Manufacturer))
		case prefixOf(wifiMfg, manufacturerPrefixLen) == prefixOf(btMfg, manufacturerPrefixLen):
			confidence += manufacturerNear
		}
	}

	if wifi.RSSI != nil && bt.RSSI != nil && p.RSSIThreshold > 0 {
		deltaS := abs(*wifi.RSSI - *bt.RSSI)
		if deltaS <= p.RSSIThreshold {
			confidence += rssiWeight * (1 - float64(deltaS)/float64(p.RSSIThreshold))
			reasons = append(reasons, "similar signal strength")
		}
	}

	if wifi.Name != "" && bt.Name != "" {
		confidence += namingWeight
	}

	if confidence > 1.0 {
		confidence = 1.0
	}

	reason := "timing overlap"
	if len(reasons) > 0 {
		reason = strings.Join(reasons, "; ")
	}
	return confidence, reason
}

func intervalsOverlap(wifi, bt observation.Observation) bool {
	return !wifi.FirstSeen.After(bt.LastSeen) && !bt.FirstSeen.After(wifi.LastSeen)
}

func prefixOf(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// fold applies Unicode case folding for caseless comparison; vendor strings
// arrive in mixed case from different collectors.
func fold(s string) string {
	return cases.Fold().String(s)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

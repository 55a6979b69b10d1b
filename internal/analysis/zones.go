package analysis

import "strings"

// zoneOrder is the USDA hardiness scale used by the scorer, coldest first.
var zoneOrder = []string{
	"1a", "1b", "2a", "2b", "3a", "3b", "4a", "4b", "5a", "5b",
	"6a", "6b", "7a", "7b", "8a", "8b", "9a", "9b", "10a", "10b",
}

// ZoneIndex returns the ordinal of zone on the hardiness scale, or -1 when unknown.
func ZoneIndex(zone string) int {
	z := strings.ToLower(strings.TrimSpace(zone))
	for i, v := range zoneOrder {
		if v == z {
			return i
		}
	}
	return -1
}

// HardinessZone maps the coldest mean winter minimum (°C) to a zone, in 5°F steps.
func HardinessZone(minWinterC float64) string {
	f := minWinterC*9/5 + 32
	threshold := -50.0
	for _, z := range zoneOrder[:len(zoneOrder)-1] {
		if f < threshold {
			return z
		}
		threshold += 5
	}
	return zoneOrder[len(zoneOrder)-1]
}

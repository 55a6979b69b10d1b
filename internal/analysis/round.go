package analysis

import "math"

// roundHalfUp rounds half values toward positive infinity.
func roundHalfUp(x float64) float64 { return math.Floor(x + 0.5) }

func roundInt(x float64) int { return int(roundHalfUp(x)) }

// round1 rounds to one decimal place.
func round1(x float64) float64 { return roundHalfUp(x*10) / 10 }

// Round1 is exported for callers that format derived values the same way.
func Round1(x float64) float64 { return round1(x) }

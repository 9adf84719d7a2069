package room

import "math"

// SkipThreshold maps the number of connected members to the number of skip
// votes that ends the current session.
type SkipThreshold func(connected int) int

// Ratio requires ceil(connected*ratio) votes, never less than one.
func Ratio(ratio float64) SkipThreshold {
	return func(connected int) int {
		return max(1, int(math.Ceil(float64(connected)*ratio)))
	}
}

func Unanimous() SkipThreshold {
	return Ratio(1)
}

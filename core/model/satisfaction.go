package model

import "time"

// SatisfactionScore maps an elapsed delivery duration to a customer
// satisfaction score. Non-increasing in elapsed time, floor of 50 beyond 50s.
func SatisfactionScore(elapsed time.Duration) int {
	s := elapsed.Seconds()
	switch {
	case s <= 10:
		return 100
	case s <= 15:
		return 95
	case s <= 20:
		return 90
	case s <= 25:
		return 85
	case s <= 30:
		return 75
	case s <= 40:
		return 65
	case s <= 50:
		return 55
	default:
		return 50
	}
}

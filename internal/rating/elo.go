package rating

import "math"

// Expected is the Elo win expectancy of a player rated a against b.
func Expected(a, b int) float64 {
	return 1 / (1 + math.Pow(10, float64(b-a)/400))
}

// Update returns the new winner and loser ratings. The delta is rounded once
// and applied to both sides so the exchange stays zero-sum.
func Update(winner, loser, k int) (int, int) {
	delta := int(math.Round(float64(k) * (1 - Expected(winner, loser))))
	return winner + delta, loser - delta
}

// updateByScore applies Update from the host/guest perspective. Equal scores
// leave both ratings untouched.
func updateByScore(host, guest, hostScore, guestScore, k int) (int, int) {
	switch {
	case hostScore > guestScore:
		return Update(host, guest, k)
	case guestScore > hostScore:
		g, h := Update(guest, host, k)
		return h, g
	default:
		return host, guest
	}
}

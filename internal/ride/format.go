package ride

import "fmt"

// FormatDuration renders whole seconds as H:MM:SS, M:SS or SS, dropping
// leading zero components.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	case m > 0:
		return fmt.Sprintf("%d:%02d", m, s)
	default:
		return fmt.Sprintf("%02d", s)
	}
}

// KmH converts meters per second to kilometers per hour.
func KmH(mps float64) float64 {
	return mps * 3.6
}

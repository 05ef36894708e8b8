package vfs

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatSize renders a byte count with 1024-based units and at most one
// decimal, e.g. "1.5 KB". Zero renders as an em dash, as folders have no size.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "—"
	}
	v, i := float64(bytes), 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*10) / 10
	return humanize.FtoaWithDigits(v, 1) + " " + sizeUnits[i]
}

// FormatDate renders a timestamp as a short calendar date, e.g. "Jan 15, 2024".
func FormatDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

package utils

import "fmt"

// FormatKB renders a byte count as kilobytes with two decimals, e.g. 1536 -> "1.50 KB".
func FormatKB(b int64) string {
	return fmt.Sprintf("%.2f KB", float64(b)/1024)
}

// Reduction returns how much smaller after is than before, in percent.
func Reduction(before, after int64) float64 {
	if before <= 0 {
		return 0
	}
	return (1 - float64(after)/float64(before)) * 100
}

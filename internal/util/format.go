package util

import "fmt"

// FormatBytes formats byte counts with appropriate units
func FormatBytes(bytes float64) string {
	return formatWithUnits(bytes, []string{"B", "KB", "MB", "GB", "TB"}, 1024)
}

// FormatMicroseconds formats a microsecond figure for console output
func FormatMicroseconds(us float64) string {
	if us >= 1_000_000 {
		return fmt.Sprintf("%.2fs", us/1_000_000)
	}
	if us >= 1000 {
		return fmt.Sprintf("%.2fms", us/1000)
	}
	return fmt.Sprintf("%.2fus", us)
}

// formatWithUnits is a generic formatter for values with scaling units
func formatWithUnits(value float64, units []string, base float64) string {
	if value < 0 {
		return "0"
	}
	idx := 0
	for value >= base && idx < len(units)-1 {
		value /= base
		idx++
	}
	if value >= 100 {
		return fmt.Sprintf("%.0f %s", value, units[idx])
	}
	if value >= 10 {
		return fmt.Sprintf("%.1f %s", value, units[idx])
	}
	return fmt.Sprintf("%.2f %s", value, units[idx])
}

package textutil

import "fmt"

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB"}

// HumanSize renders a byte count in binary units. Megabytes and gigabytes
// carry two decimals, other units one. Zero renders as an empty string.
func HumanSize(bytes uint64) string {
	if bytes == 0 {
		return ""
	}
	value := float64(bytes)
	for _, unit := range sizeUnits {
		if value < 1024 {
			if unit == "MB" || unit == "GB" {
				return fmt.Sprintf("%.2f%s", value, unit)
			}
			return fmt.Sprintf("%.1f%s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.2fPB", value)
}

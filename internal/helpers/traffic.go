package helpers

import (
	"fmt"

	"outline-tg-bot/internal/constants"
)

// BytesToGiB converts a byte count to GiB
func BytesToGiB(bytes int64) float64 {
	return float64(bytes) / constants.BytesInGiB
}

// FormatGiB formats a byte count as a GiB string with two decimals
func FormatGiB(bytes int64) string {
	return fmt.Sprintf("%.2f", BytesToGiB(bytes))
}

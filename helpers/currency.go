package helpers

import (
	"fmt"
	"strings"
)

// FormatRupees formats an amount as rupees with comma thousand separators, e.g. ₹12,500
func FormatRupees(amount float64) string {
	value := int64(amount)

	negative := value < 0
	if negative {
		value = -value
	}

	str := fmt.Sprintf("%d", value)
	length := len(str)

	var b strings.Builder
	for i, digit := range str {
		if i > 0 && (length-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	if negative {
		return "-₹" + b.String()
	}
	return "₹" + b.String()
}

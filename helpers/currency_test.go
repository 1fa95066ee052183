package helpers

import "testing"

func TestFormatRupees(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "₹0"},
		{500, "₹500"},
		{1500, "₹1,500"},
		{1234567.89, "₹1,234,567"},
		{-42000, "-₹42,000"},
	}

	for _, tt := range tests {
		if got := FormatRupees(tt.amount); got != tt.want {
			t.Errorf("FormatRupees(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

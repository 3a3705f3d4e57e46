package util

import (
	"strings"
	"testing"
)

func TestFormatCurrency_USD(t *testing.T) {
	got := FormatCurrency(123450, "USD", "en-US")
	if !strings.Contains(got, "1,234.50") {
		t.Errorf("FormatCurrency = %q, want grouped 1,234.50", got)
	}
	if !strings.Contains(got, "$") {
		t.Errorf("FormatCurrency = %q, want a dollar sign", got)
	}
}

func TestFormatCurrency_Negative(t *testing.T) {
	got := FormatCurrency(-2500, "USD", "en-US")
	if !strings.HasPrefix(got, "-") || !strings.Contains(got, "25.00") {
		t.Errorf("FormatCurrency = %q", got)
	}
}

func TestFormatCurrency_ZeroDecimalCurrency(t *testing.T) {
	got := FormatCurrency(1234500, "JPY", "en-US")
	if !strings.Contains(got, "12,345") || strings.Contains(got, "12,345.00") {
		t.Errorf("FormatCurrency JPY = %q, want no fraction digits", got)
	}
}

func TestFormatCurrency_InvalidCodeFallsBack(t *testing.T) {
	want := FormatCurrency(999, FallbackCurrency, FallbackLocale)
	for _, code := range []string{"NOPE", "", "12"} {
		if got := FormatCurrency(999, code, "id-ID"); got != want {
			t.Errorf("FormatCurrency(%q) = %q, want fallback %q", code, got, want)
		}
	}
}

func TestFormatCurrency_InvalidLocale(t *testing.T) {
	got := FormatCurrency(100, "EUR", "not a locale!!")
	if !strings.Contains(got, "1.00") {
		t.Errorf("FormatCurrency with bad locale = %q", got)
	}
}

func TestValidCurrency(t *testing.T) {
	for _, c := range Currencies {
		if !ValidCurrency(c.Code) {
			t.Errorf("ValidCurrency(%q) = false", c.Code)
		}
	}
	if ValidCurrency("NOPE") {
		t.Error("ValidCurrency(NOPE) = true")
	}
}

package util

import (
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Fallbacks used when a configured currency or locale cannot be parsed.
const (
	FallbackCurrency = "USD"
	FallbackLocale   = "en-US"
)

// Currency is one entry of the selectable currency list.
type Currency struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Currencies offered in settings.
var Currencies = []Currency{
	{Code: "USD", Name: "US Dollar"},
	{Code: "IDR", Name: "Indonesian Rupiah"},
	{Code: "EUR", Name: "Euro"},
	{Code: "JPY", Name: "Japanese Yen"},
	{Code: "GBP", Name: "British Pound"},
}

// ValidCurrency reports whether code is a recognized ISO 4217 code.
func ValidCurrency(code string) bool {
	_, err := currency.ParseISO(strings.TrimSpace(code))
	return err == nil
}

// FormatCurrency renders an amount in cents as a localized money string,
// e.g. "$1,234.50". An unknown currency code or locale falls back to USD
// formatted for en-US.
func FormatCurrency(cents int64, code, locale string) string {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		unit = currency.USD
		locale = FallbackLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}

	p := message.NewPrinter(tag)
	scale, _ := currency.Standard.Rounding(unit)

	amount := FromCents(cents)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	value, _ := amount.Round(int32(scale)).Float64()

	symbol := p.Sprint(currency.Symbol(unit))
	digits := p.Sprint(number.Decimal(value, number.Scale(scale)))
	return sign + symbol + digits
}

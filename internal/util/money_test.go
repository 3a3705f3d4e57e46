package util

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "12.34", want: 1234},
		{in: "12,34", want: 1234},
		{in: "12.345", want: 1235},
		{in: "12.344", want: 1234},
		{in: "0.5", want: 50},
		{in: "100", want: 10000},
		{in: " 7 ", want: 700},
		{in: "-3.10", want: -310},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "1.2.3", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseAmount(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseAmount(%q) = %d, %v, want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestToCents_TooBig(t *testing.T) {
	_, err := ToCents(decimal.RequireFromString("100000000000000000"))
	if !errors.Is(err, ErrAmountTooBig) {
		t.Errorf("err = %v, want ErrAmountTooBig", err)
	}
}

func TestFormatCents(t *testing.T) {
	tests := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		1234:   "12.34",
		-1050:  "-10.50",
		100000: "1000.00",
	}
	for in, want := range tests {
		if got := FormatCents(in); got != want {
			t.Errorf("FormatCents(%d) = %q, want %q", in, got, want)
		}
	}
}

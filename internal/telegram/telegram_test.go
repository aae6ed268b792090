package telegram

import (
	"strings"
	"testing"
)

func TestManufacturerString(t *testing.T) {
	tg := &Telegram{Manufacturer: [3]byte{'M', 'G', 'C'}}
	if got := tg.ManufacturerString(); got != "MGC" {
		t.Errorf("ManufacturerString() = %q, want %q", got, "MGC")
	}
}

func TestString(t *testing.T) {
	tg := &Telegram{
		Manufacturer: [3]byte{'A', 'B', 'C'},
		Ident:        "K1234-77",
		Data:         []string{"1.8.0(001234.5*kWh)", "F.F(00)"},
	}
	s := tg.String()
	for _, want := range []string{"ABC", "K1234-77", "2 objects"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}

func TestDataString(t *testing.T) {
	tg := &Telegram{Data: []string{"a", "b"}}
	if got := tg.DataString(); got != "a\nb" {
		t.Errorf("DataString() = %q, want %q", got, "a\nb")
	}
}

package model

import (
	"errors"
	"testing"
)

func TestParseTicketType(t *testing.T) {
	cases := []struct {
		in      string
		want    TicketType
		wantErr bool
	}{
		{"SINGLE", TicketSingle, false},
		{"single", TicketSingle, false},
		{" Return ", TicketReturn, false},
		{"RETURN", TicketReturn, false},
		{"", "", true},
		{"DAYPASS", "", true},
	}
	for _, c := range cases {
		got, err := ParseTicketType(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseTicketType(%q): expected error", c.in)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ParseTicketType(%q): error should be ErrInvalidInput", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTicketType(%q): unexpected error %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseTicketType(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestReceipt(t *testing.T) {
	ticket := Ticket{
		Origin:      "Origin Station",
		Destination: "Airport",
		Type:        TicketSingle,
		Price:       7.654,
	}

	want := "ORIGIN STATION\nto\nAIRPORT\nPrice: 7.65 [Single]\n"
	if got := ticket.Receipt(); got != want {
		t.Errorf("Receipt() = %q, want %q", got, want)
	}

	ticket.Type = TicketReturn
	ticket.Price = 15.00
	want = "ORIGIN STATION\nto\nAIRPORT\nPrice: 15.00 [Return]\n"
	if got := ticket.Receipt(); got != want {
		t.Errorf("Receipt() = %q, want %q", got, want)
	}
}

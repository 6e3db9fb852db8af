package model

import (
	"fmt"
	"strings"
	"time"
)

// TicketType distinguishes single from return fares.
type TicketType string

const (
	TicketSingle TicketType = "SINGLE"
	TicketReturn TicketType = "RETURN"
)

// ParseTicketType validates and normalizes a ticket type string.
func ParseTicketType(s string) (TicketType, error) {
	switch TicketType(strings.ToUpper(strings.TrimSpace(s))) {
	case TicketSingle:
		return TicketSingle, nil
	case TicketReturn:
		return TicketReturn, nil
	default:
		return "", fmt.Errorf("%w: unknown ticket type %q", ErrInvalidInput, s)
	}
}

// Station represents a destination station with its base fares.
// SalesCount is mutated only as part of a completed sale.
type Station struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	SinglePrice float64 `db:"single_price" json:"single_price"`
	ReturnPrice float64 `db:"return_price" json:"return_price"`
	SalesCount  int64   `db:"sales_count" json:"sales_count"`
}

// Card is a stored-value payment card. Credit never goes below zero.
type Card struct {
	CardNumber string  `db:"card_number" json:"card_number"`
	Credit     float64 `db:"credit" json:"credit"`
}

// Admin holds back-office credentials. Passwords are stored in plaintext
// for parity with the legacy system; hash them before any real deployment.
type Admin struct {
	Username string `db:"username" json:"username"`
	Password string `db:"password" json:"-"`
}

// Offer is a time-bounded percentage discount scoped to one station.
// The [StartDate, EndDate] range is inclusive on both ends and compared
// at calendar-date granularity.
type Offer struct {
	ID              int64     `db:"id" json:"id"`
	StationID       int64     `db:"station_id" json:"station_id"`
	DiscountPercent float64   `db:"discount_percent" json:"discount_percent"`
	StartDate       time.Time `db:"start_date" json:"start_date"`
	EndDate         time.Time `db:"end_date" json:"end_date"`
}

// Ticket is one row of the append-only sales log.
type Ticket struct {
	ID          int64      `db:"id" json:"id"`
	TimeUTC     time.Time  `db:"time_utc" json:"time_utc"`
	Origin      string     `db:"origin" json:"origin"`
	Destination string     `db:"destination" json:"destination"`
	Type        TicketType `db:"type" json:"type"`
	Price       float64    `db:"price" json:"price"`
	CardNumber  string     `db:"card_number" json:"card_number"`
}

// Receipt renders the plain-text ticket stub. Rounding happens here and
// nowhere inside the pricing or ledger code.
func (t Ticket) Receipt() string {
	word := "Single"
	if t.Type == TicketReturn {
		word = "Return"
	}
	var b strings.Builder
	b.WriteString(strings.ToUpper(t.Origin))
	b.WriteString("\nto\n")
	b.WriteString(strings.ToUpper(t.Destination))
	fmt.Fprintf(&b, "\nPrice: %.2f [%s]\n", t.Price, word)
	return b.String()
}

// PriceQuote is a derived, non-persisted snapshot of base and discounted
// fares for a station at a point in time. ActiveOffer is nil when no offer
// was in effect.
type PriceQuote struct {
	BaseSingle       float64 `json:"base_single"`
	BaseReturn       float64 `json:"base_return"`
	SingleAfterOffer float64 `json:"single_after_offer"`
	ReturnAfterOffer float64 `json:"return_after_offer"`
	ActiveOffer      *Offer  `json:"active_offer,omitempty"`
}

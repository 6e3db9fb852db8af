// Package fare holds the pure pricing rules: which offer applies to a
// station on a given day, and what the discounted fares come out to.
// It performs no I/O and no rounding.
package fare

import (
	"time"

	"github.com/stationfare/ticketing/internal/model"
)

// dateOnly truncates a timestamp to its UTC calendar date. Offers are
// day-granular; time of day never influences resolution.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether the offer's inclusive date range covers the
// given day. A zero-length range (start == end) matches exactly that day.
func Contains(o model.Offer, on time.Time) bool {
	day := dateOnly(on)
	return !day.Before(dateOnly(o.StartDate)) && !day.After(dateOnly(o.EndDate))
}

// ResolveActive picks the offer in effect on the given day, or nil when
// none applies. Overlapping offers are permitted; the most recently
// created one (highest id) wins. Absence of an offer is not an error.
func ResolveActive(offers []model.Offer, on time.Time) *model.Offer {
	var best *model.Offer
	for i := range offers {
		o := &offers[i]
		if !Contains(*o, on) {
			continue
		}
		if best == nil || o.ID > best.ID {
			best = o
		}
	}
	return best
}

// Quote computes base and after-offer fares for a station. With no offer
// the factor is 1 and the after-offer figures equal the base exactly.
// The factor is applied as-is: a discount of 100 or more yields a zero or
// negative fare, which callers must reject rather than have it clamped
// here.
func Quote(station model.Station, offer *model.Offer) model.PriceQuote {
	f := 1.0
	if offer != nil {
		f = 1.0 - offer.DiscountPercent/100.0
	}
	return model.PriceQuote{
		BaseSingle:       station.SinglePrice,
		BaseReturn:       station.ReturnPrice,
		SingleAfterOffer: station.SinglePrice * f,
		ReturnAfterOffer: station.ReturnPrice * f,
		ActiveOffer:      offer,
	}
}

// PriceFor selects the charged amount from a quote by ticket type.
func PriceFor(q model.PriceQuote, t model.TicketType) float64 {
	if t == model.TicketReturn {
		return q.ReturnAfterOffer
	}
	return q.SingleAfterOffer
}

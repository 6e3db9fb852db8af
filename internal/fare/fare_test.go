package fare

import (
	"math"
	"testing"
	"time"

	"github.com/stationfare/ticketing/internal/model"
)

const epsilon = 1e-9

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func offer(id int64, pct float64, start, end time.Time) model.Offer {
	return model.Offer{ID: id, StationID: 1, DiscountPercent: pct, StartDate: start, EndDate: end}
}

func TestResolveActive(t *testing.T) {
	jan10 := date(2026, time.January, 10)

	t.Run("no offers", func(t *testing.T) {
		if got := ResolveActive(nil, jan10); got != nil {
			t.Fatalf("expected nil, got %+v", got)
		}
	})

	t.Run("no offer covers the date", func(t *testing.T) {
		offers := []model.Offer{
			offer(1, 10, date(2026, time.January, 1), date(2026, time.January, 5)),
			offer(2, 20, date(2026, time.January, 11), date(2026, time.January, 31)),
		}
		if got := ResolveActive(offers, jan10); got != nil {
			t.Fatalf("expected nil, got offer id %d", got.ID)
		}
	})

	t.Run("single active offer", func(t *testing.T) {
		offers := []model.Offer{
			offer(7, 15, date(2026, time.January, 1), date(2026, time.January, 31)),
		}
		got := ResolveActive(offers, jan10)
		if got == nil || got.ID != 7 {
			t.Fatalf("expected offer 7, got %+v", got)
		}
	})

	t.Run("overlapping offers resolve to highest id", func(t *testing.T) {
		offers := []model.Offer{
			offer(3, 10, date(2026, time.January, 1), date(2026, time.January, 31)),
			offer(5, 25, date(2026, time.January, 5), date(2026, time.January, 15)),
			offer(4, 50, date(2026, time.January, 9), date(2026, time.January, 11)),
		}
		got := ResolveActive(offers, jan10)
		if got == nil || got.ID != 5 {
			t.Fatalf("expected offer 5 to win the tie-break, got %+v", got)
		}
	})

	t.Run("zero-length range matches only its day", func(t *testing.T) {
		offers := []model.Offer{offer(1, 10, jan10, jan10)}
		if got := ResolveActive(offers, jan10); got == nil {
			t.Fatal("expected the single-day offer to match its own day")
		}
		if got := ResolveActive(offers, date(2026, time.January, 11)); got != nil {
			t.Fatalf("expected nil the day after, got offer id %d", got.ID)
		}
		if got := ResolveActive(offers, date(2026, time.January, 9)); got != nil {
			t.Fatalf("expected nil the day before, got offer id %d", got.ID)
		}
	})

	t.Run("boundary days are inclusive", func(t *testing.T) {
		o := offer(1, 10, date(2026, time.January, 5), date(2026, time.January, 15))
		if !Contains(o, date(2026, time.January, 5)) {
			t.Error("start date should match")
		}
		if !Contains(o, date(2026, time.January, 15)) {
			t.Error("end date should match")
		}
	})

	t.Run("time of day is ignored", func(t *testing.T) {
		o := offer(1, 10, date(2026, time.January, 5), date(2026, time.January, 5))
		lateEvening := time.Date(2026, time.January, 5, 23, 59, 59, 0, time.UTC)
		if !Contains(o, lateEvening) {
			t.Error("expected a match regardless of time of day")
		}
	})
}

func TestQuote(t *testing.T) {
	airport := model.Station{ID: 1, Name: "Airport", SinglePrice: 8.50, ReturnPrice: 15.00}

	t.Run("no offer means base price exactly", func(t *testing.T) {
		q := Quote(airport, nil)
		if q.ActiveOffer != nil {
			t.Fatal("expected nil active offer")
		}
		if q.SingleAfterOffer != q.BaseSingle || q.ReturnAfterOffer != q.BaseReturn {
			t.Fatalf("after-offer must equal base with no offer: %+v", q)
		}
	})

	t.Run("ten percent off airport single", func(t *testing.T) {
		o := offer(1, 10, date(2026, time.January, 1), date(2026, time.January, 31))
		q := Quote(airport, &o)
		if math.Abs(q.SingleAfterOffer-7.65) > epsilon {
			t.Errorf("expected 7.65, got %v", q.SingleAfterOffer)
		}
		if math.Abs(q.ReturnAfterOffer-13.50) > epsilon {
			t.Errorf("expected 13.50, got %v", q.ReturnAfterOffer)
		}
		if q.BaseSingle != 8.50 || q.BaseReturn != 15.00 {
			t.Errorf("base figures must be untouched: %+v", q)
		}
		if q.ActiveOffer == nil || q.ActiveOffer.ID != 1 {
			t.Error("quote must carry the resolved offer")
		}
	})

	t.Run("hundred percent yields zero fare unclamped", func(t *testing.T) {
		o := offer(1, 100, date(2026, time.January, 1), date(2026, time.January, 31))
		q := Quote(airport, &o)
		if math.Abs(q.SingleAfterOffer) > epsilon {
			t.Errorf("expected zero fare, got %v", q.SingleAfterOffer)
		}
	})

	t.Run("over hundred percent goes negative unclamped", func(t *testing.T) {
		o := offer(1, 150, date(2026, time.January, 1), date(2026, time.January, 31))
		q := Quote(airport, &o)
		if q.SingleAfterOffer >= 0 {
			t.Errorf("expected negative fare, got %v", q.SingleAfterOffer)
		}
	})
}

func TestPriceFor(t *testing.T) {
	q := model.PriceQuote{SingleAfterOffer: 3.20, ReturnAfterOffer: 5.80}
	if got := PriceFor(q, model.TicketSingle); got != 3.20 {
		t.Errorf("single: expected 3.20, got %v", got)
	}
	if got := PriceFor(q, model.TicketReturn); got != 5.80 {
		t.Errorf("return: expected 5.80, got %v", got)
	}
}

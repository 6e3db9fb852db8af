//go:build integration
// +build integration

package ticketing_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/stationfare/ticketing/internal/database"
	"github.com/stationfare/ticketing/internal/model"
	"github.com/stationfare/ticketing/internal/service"
)

const epsilon = 1e-9

// setupTestDB creates a PostgreSQL container and returns a connected pool
func setupTestDB(t *testing.T) (*sqlx.DB, func()) {
	ctx := context.Background()

	pgContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:alpine"),
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	require.NoError(t, database.EnsureSchema(ctx, db))
	require.NoError(t, database.Seed(ctx, db))

	cleanup := func() {
		db.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}
	return db, cleanup
}

func newService(db *sqlx.DB) *service.TicketingService {
	return service.NewTicketingService(db, zap.NewNop(), 90)
}

func stationByName(t *testing.T, db *sqlx.DB, name string) model.Station {
	var s model.Station
	require.NoError(t, db.Get(&s,
		`SELECT id, name, single_price, return_price, sales_count FROM stations WHERE name = $1`, name))
	return s
}

func ticketCount(t *testing.T, db *sqlx.DB) int {
	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM tickets`))
	return n
}

func cardCredit(t *testing.T, db *sqlx.DB, number string) float64 {
	var c float64
	require.NoError(t, db.Get(&c, `SELECT credit FROM cards WHERE card_number = $1`, number))
	return c
}

func TestTicketingEndToEnd(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	svc := newService(db)

	airport := stationByName(t, db, "Airport")

	t.Run("seeded quote applies the airport offer", func(t *testing.T) {
		quote, err := svc.QuoteStation(ctx, airport.ID, time.Now())
		require.NoError(t, err)
		require.NotNil(t, quote.ActiveOffer)
		require.InDelta(t, 8.50, quote.BaseSingle, epsilon)
		require.InDelta(t, 7.65, quote.SingleAfterOffer, epsilon)
	})

	t.Run("quote outside the offer window is full price", func(t *testing.T) {
		farFuture := time.Now().AddDate(2, 0, 0)
		quote, err := svc.QuoteStation(ctx, airport.ID, farFuture)
		require.NoError(t, err)
		require.Nil(t, quote.ActiveOffer)
		require.Equal(t, quote.BaseSingle, quote.SingleAfterOffer)
		require.Equal(t, quote.BaseReturn, quote.ReturnAfterOffer)
	})

	t.Run("purchase with insufficient funds changes nothing", func(t *testing.T) {
		before := stationByName(t, db, "Airport")
		tickets := ticketCount(t, db)

		_, err := svc.Purchase(ctx, airport.ID, model.TicketSingle, "4000000000009995")
		require.ErrorIs(t, err, model.ErrInsufficientFunds)

		after := stationByName(t, db, "Airport")
		require.Equal(t, before.SalesCount, after.SalesCount)
		require.Equal(t, tickets, ticketCount(t, db))
		require.InDelta(t, 5.00, cardCredit(t, db, "4000000000009995"), epsilon)
	})

	t.Run("purchase with unknown card fails distinctly", func(t *testing.T) {
		_, err := svc.Purchase(ctx, airport.ID, model.TicketSingle, "0000000000000000")
		require.ErrorIs(t, err, model.ErrCardNotFound)
	})

	t.Run("purchase against unknown station fails distinctly", func(t *testing.T) {
		_, err := svc.Purchase(ctx, 999999, model.TicketSingle, "4242424242424242")
		require.ErrorIs(t, err, model.ErrStationNotFound)
	})

	t.Run("successful purchase commits all three writes", func(t *testing.T) {
		before := stationByName(t, db, "Airport")
		tickets := ticketCount(t, db)

		ticket, err := svc.Purchase(ctx, airport.ID, model.TicketSingle, "4242424242424242")
		require.NoError(t, err)
		require.NotZero(t, ticket.ID)
		require.Equal(t, model.TicketSingle, ticket.Type)
		require.Equal(t, "Airport", ticket.Destination)
		require.InDelta(t, 7.65, ticket.Price, epsilon)

		after := stationByName(t, db, "Airport")
		require.Equal(t, before.SalesCount+1, after.SalesCount)
		require.Equal(t, tickets+1, ticketCount(t, db))
		require.InDelta(t, 22.35, cardCredit(t, db, "4242424242424242"), epsilon)
	})

	t.Run("sequential over-deductions always refuse and never drain", func(t *testing.T) {
		credit := cardCredit(t, db, "4000000000009995")
		for i := 0; i < 3; i++ {
			err := svc.DeductFare(ctx, "4000000000009995", credit+1.00)
			require.ErrorIs(t, err, model.ErrInsufficientFunds)
			require.InDelta(t, credit, cardCredit(t, db, "4000000000009995"), epsilon)
		}
	})

	t.Run("deduct rejects non-positive amounts", func(t *testing.T) {
		err := svc.DeductFare(ctx, "4242424242424242", 0)
		require.ErrorIs(t, err, model.ErrInvalidInput)
		err = svc.DeductFare(ctx, "4242424242424242", -3)
		require.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("overlapping offers resolve to the newest", func(t *testing.T) {
		north := stationByName(t, db, "North")
		today := time.Now()
		start := today.AddDate(0, 0, -1)
		end := today.AddDate(0, 0, 1)

		first := &model.Offer{StationID: north.ID, DiscountPercent: 10, StartDate: start, EndDate: end}
		require.NoError(t, svc.AddOffer(ctx, first))
		second := &model.Offer{StationID: north.ID, DiscountPercent: 25, StartDate: start, EndDate: end}
		require.NoError(t, svc.AddOffer(ctx, second))
		require.Greater(t, second.ID, first.ID)

		quote, err := svc.QuoteStation(ctx, north.ID, today)
		require.NoError(t, err)
		require.NotNil(t, quote.ActiveOffer)
		require.Equal(t, second.ID, quote.ActiveOffer.ID)
		require.InDelta(t, north.SinglePrice*0.75, quote.SingleAfterOffer, epsilon)
	})

	t.Run("offer validation", func(t *testing.T) {
		north := stationByName(t, db, "North")
		today := time.Now()

		bad := &model.Offer{StationID: north.ID, DiscountPercent: 95, StartDate: today, EndDate: today}
		require.ErrorIs(t, svc.AddOffer(ctx, bad), model.ErrInvalidInput)

		inverted := &model.Offer{StationID: north.ID, DiscountPercent: 10,
			StartDate: today, EndDate: today.AddDate(0, 0, -2)}
		require.ErrorIs(t, svc.AddOffer(ctx, inverted), model.ErrInvalidInput)

		orphan := &model.Offer{StationID: 999999, DiscountPercent: 10, StartDate: today, EndDate: today}
		require.ErrorIs(t, svc.AddOffer(ctx, orphan), model.ErrStationNotFound)
	})

	t.Run("admin login", func(t *testing.T) {
		require.NoError(t, svc.Login(ctx, "admin", "admin123"))
		require.ErrorIs(t, svc.Login(ctx, "admin", "wrong"), model.ErrAdminAuth)
	})

	t.Run("price factor applies to every station", func(t *testing.T) {
		before := stationByName(t, db, "East")
		require.NoError(t, svc.AdjustAllPrices(ctx, 1.10))
		after := stationByName(t, db, "East")
		require.InDelta(t, before.SinglePrice*1.10, after.SinglePrice, epsilon)
		require.InDelta(t, before.ReturnPrice*1.10, after.ReturnPrice, epsilon)

		require.ErrorIs(t, svc.AdjustAllPrices(ctx, 0), model.ErrInvalidInput)
	})

	t.Run("offers cascade-delete with their station", func(t *testing.T) {
		st := &model.Station{Name: "Temp Halt", SinglePrice: 1.00, ReturnPrice: 1.80}
		require.NoError(t, svc.SaveStation(ctx, st))

		offer := &model.Offer{StationID: st.ID, DiscountPercent: 10,
			StartDate: time.Now(), EndDate: time.Now()}
		require.NoError(t, svc.AddOffer(ctx, offer))

		// No delete operation in the service on purpose; exercise the FK.
		_, err := db.Exec(`DELETE FROM stations WHERE id = $1`, st.ID)
		require.NoError(t, err)

		var n int
		require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM offers WHERE station_id = $1`, st.ID))
		require.Zero(t, n)
	})
}

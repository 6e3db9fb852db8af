package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stationfare/ticketing/internal/model"
)

// OfferRepository handles offer data operations
type OfferRepository struct{}

// NewOfferRepository creates a new offer repository
func NewOfferRepository() *OfferRepository {
	return &OfferRepository{}
}

// ListForStation returns every offer for the station, newest first.
func (r *OfferRepository) ListForStation(db DBExecutor, stationID int64) ([]model.Offer, error) {
	query := `
		SELECT id, station_id, discount_percent, start_date, end_date
		FROM offers
		WHERE station_id = $1
		ORDER BY id DESC
	`

	var offers []model.Offer
	if err := db.Select(&offers, query, stationID); err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return offers, nil
}

// List returns all offers across stations, newest first.
func (r *OfferRepository) List(db DBExecutor) ([]model.Offer, error) {
	query := `
		SELECT id, station_id, discount_percent, start_date, end_date
		FROM offers
		ORDER BY id DESC
	`

	var offers []model.Offer
	if err := db.Select(&offers, query); err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	return offers, nil
}

// ActiveFor returns the offer in effect for the station on the given day,
// or nil when none applies. Overlapping offers resolve to the most
// recently created one (highest id). Absence is not an error.
func (r *OfferRepository) ActiveFor(db DBExecutor, stationID int64, on time.Time) (*model.Offer, error) {
	query := `
		SELECT id, station_id, discount_percent, start_date, end_date
		FROM offers
		WHERE station_id = $1 AND start_date <= $2 AND end_date >= $2
		ORDER BY id DESC
		LIMIT 1
	`

	day := on.UTC().Format("2006-01-02")

	var offer model.Offer
	err := db.Get(&offer, query, stationID, day)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to resolve active offer: %w", err)
	}
	return &offer, nil
}

// Add creates a new offer after validating its bounds. maxPercent comes
// from configuration so free-fare promotions stay a deliberate choice.
func (r *OfferRepository) Add(db DBExecutor, offer *model.Offer, maxPercent float64) error {
	if offer.DiscountPercent <= 0 || offer.DiscountPercent > maxPercent {
		return fmt.Errorf("%w: discount percent must be in (0, %v]", model.ErrInvalidInput, maxPercent)
	}
	if offer.EndDate.Before(offer.StartDate) {
		return fmt.Errorf("%w: offer end date precedes start date", model.ErrInvalidInput)
	}

	query := `
		INSERT INTO offers (station_id, discount_percent, start_date, end_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := db.Get(&offer.ID, query,
		offer.StationID, offer.DiscountPercent,
		offer.StartDate.UTC().Format("2006-01-02"), offer.EndDate.UTC().Format("2006-01-02"))
	if err != nil {
		return fmt.Errorf("failed to add offer: %w", err)
	}
	return nil
}

// Delete removes an offer by id. Deleting a missing offer is a no-op.
func (r *OfferRepository) Delete(db DBExecutor, id int64) error {
	if _, err := db.Exec(`DELETE FROM offers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete offer: %w", err)
	}
	return nil
}

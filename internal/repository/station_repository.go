package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/stationfare/ticketing/internal/model"
)

// DBExecutor interface for database operations (can be *sqlx.DB or *sqlx.Tx)
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
}

// StationRepository handles station data operations
type StationRepository struct{}

// NewStationRepository creates a new station repository
func NewStationRepository() *StationRepository {
	return &StationRepository{}
}

// All returns every station ordered by name.
func (r *StationRepository) All(db DBExecutor) ([]model.Station, error) {
	query := `
		SELECT id, name, single_price, return_price, sales_count
		FROM stations
		ORDER BY name
	`

	var stations []model.Station
	if err := db.Select(&stations, query); err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	return stations, nil
}

// ByID retrieves a station by id.
func (r *StationRepository) ByID(db DBExecutor, id int64) (*model.Station, error) {
	query := `
		SELECT id, name, single_price, return_price, sales_count
		FROM stations
		WHERE id = $1
	`

	var station model.Station
	err := db.Get(&station, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrStationNotFound
		}
		return nil, fmt.Errorf("failed to get station: %w", err)
	}
	return &station, nil
}

// Upsert inserts the station when its ID is zero, otherwise updates the
// existing row. Sales counts are never written here.
func (r *StationRepository) Upsert(db DBExecutor, station *model.Station) error {
	if strings.TrimSpace(station.Name) == "" {
		return fmt.Errorf("%w: station name must not be empty", model.ErrInvalidInput)
	}
	if station.SinglePrice <= 0 || station.ReturnPrice <= 0 {
		return fmt.Errorf("%w: station prices must be positive", model.ErrInvalidInput)
	}

	if station.ID == 0 {
		query := `
			INSERT INTO stations (name, single_price, return_price)
			VALUES ($1, $2, $3)
			RETURNING id
		`
		if err := db.Get(&station.ID, query, station.Name, station.SinglePrice, station.ReturnPrice); err != nil {
			return fmt.Errorf("failed to insert station: %w", err)
		}
		return nil
	}

	query := `
		UPDATE stations
		SET name = $1, single_price = $2, return_price = $3
		WHERE id = $4
	`
	result, err := db.Exec(query, station.Name, station.SinglePrice, station.ReturnPrice, station.ID)
	if err != nil {
		return fmt.Errorf("failed to update station: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrStationNotFound
	}
	return nil
}

// IncSales bumps the sales counter by exactly one. Only the sale
// transaction calls this.
func (r *StationRepository) IncSales(db DBExecutor, id int64) error {
	result, err := db.Exec(`UPDATE stations SET sales_count = sales_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment sales count: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrStationNotFound
	}
	return nil
}

// UpdateAllPricesByFactor multiplies every station's fares by the factor.
func (r *StationRepository) UpdateAllPricesByFactor(db DBExecutor, factor float64) error {
	if factor <= 0 {
		return fmt.Errorf("%w: price factor must be positive", model.ErrInvalidInput)
	}
	_, err := db.Exec(
		`UPDATE stations SET single_price = single_price * $1, return_price = return_price * $1`,
		factor,
	)
	if err != nil {
		return fmt.Errorf("failed to update prices: %w", err)
	}
	return nil
}

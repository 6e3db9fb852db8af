package repository

import (
	"fmt"
	"time"

	"github.com/stationfare/ticketing/internal/model"
)

// TicketRepository appends to the sales log. Tickets are never updated
// or deleted.
type TicketRepository struct{}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository() *TicketRepository {
	return &TicketRepository{}
}

// Append logs a completed sale within the caller's transaction and fills
// in the generated id and timestamp.
func (r *TicketRepository) Append(db DBExecutor, ticket *model.Ticket) error {
	query := `
		INSERT INTO tickets (time_utc, origin, destination, type, price, card_number)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	ticket.TimeUTC = time.Now().UTC()
	err := db.Get(&ticket.ID, query,
		ticket.TimeUTC, ticket.Origin, ticket.Destination,
		ticket.Type, ticket.Price, ticket.CardNumber)
	if err != nil {
		return fmt.Errorf("failed to append ticket: %w", err)
	}
	return nil
}

// ListRecent returns the newest tickets up to limit.
func (r *TicketRepository) ListRecent(db DBExecutor, limit int) ([]model.Ticket, error) {
	query := `
		SELECT id, time_utc, origin, destination, type, price, card_number
		FROM tickets
		ORDER BY id DESC
		LIMIT $1
	`

	var tickets []model.Ticket
	if err := db.Select(&tickets, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

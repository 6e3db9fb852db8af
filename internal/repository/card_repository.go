package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/stationfare/ticketing/internal/model"
)

// creditEpsilon absorbs accumulated floating-point noise when comparing
// a balance against a charge.
const creditEpsilon = 1e-9

// CardRepository is the ledger over stored-value cards. All balance
// mutation goes through Deduct inside a caller-owned transaction.
type CardRepository struct{}

// NewCardRepository creates a new card repository
func NewCardRepository() *CardRepository {
	return &CardRepository{}
}

// Find retrieves a card by number.
func (r *CardRepository) Find(db DBExecutor, cardNumber string) (*model.Card, error) {
	query := `SELECT card_number, credit FROM cards WHERE card_number = $1`

	var card model.Card
	err := db.Get(&card, query, cardNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to find card: %w", err)
	}
	return &card, nil
}

// Deduct subtracts amount from the card's credit, refusing when the
// balance would go negative. The row lock taken by FOR UPDATE serializes
// concurrent deductions on the same card, so the balance read cannot be
// interleaved with another writer. The caller's transaction commits or
// rolls the write back together with everything else in the sale.
func (r *CardRepository) Deduct(tx *sqlx.Tx, cardNumber string, amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: deduction amount must be positive", model.ErrInvalidInput)
	}

	var credit float64
	err := tx.Get(&credit, `SELECT credit FROM cards WHERE card_number = $1 FOR UPDATE`, cardNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrCardNotFound
		}
		return fmt.Errorf("failed to read card balance: %w", err)
	}

	if credit+creditEpsilon < amount {
		return model.ErrInsufficientFunds
	}

	result, err := tx.Exec(
		`UPDATE cards SET credit = credit - $1 WHERE card_number = $2`,
		amount, cardNumber,
	)
	if err != nil {
		return fmt.Errorf("failed to deduct from card: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrCardNotFound
	}
	return nil
}

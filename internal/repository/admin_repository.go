package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/stationfare/ticketing/internal/model"
)

// AdminRepository handles back-office authentication.
type AdminRepository struct{}

// NewAdminRepository creates a new admin repository
func NewAdminRepository() *AdminRepository {
	return &AdminRepository{}
}

// Login checks the credential pair against the admins table. Plaintext
// comparison matches the legacy contract; see DESIGN.md before reusing
// this anywhere that matters.
func (r *AdminRepository) Login(db DBExecutor, username, password string) error {
	query := `SELECT 1 FROM admins WHERE username = $1 AND password = $2`

	var one int
	err := db.Get(&one, query, username, password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrAdminAuth
		}
		return fmt.Errorf("failed to check admin credentials: %w", err)
	}
	return nil
}

package repositories

import (
	"errors"

	"inventario/internal/models"
)

// ErrOperatorNotFound is returned when no operator matches a lookup.
var ErrOperatorNotFound = errors.New("operator not found")

// OperatorRepository defines the interface for operator account access.
type OperatorRepository interface {
	Create(operator *models.Operator) error
	GetByUsername(username string) (*models.Operator, error)
	GetByEmail(email string) (*models.Operator, error)
	GetByID(id string) (*models.Operator, error)
}

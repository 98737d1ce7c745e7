package repositories

import (
	"errors"
	"fmt"

	"inventario/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOperatorRepository is a GORM implementation of OperatorRepository.
type GORMOperatorRepository struct {
	db *gorm.DB
}

// NewGORMOperatorRepository creates a new instance of GORMOperatorRepository.
func NewGORMOperatorRepository(db *gorm.DB) *GORMOperatorRepository {
	return &GORMOperatorRepository{
		db: db,
	}
}

// Create stores a new operator, assigning an ID when none is set.
func (r *GORMOperatorRepository) Create(operator *models.Operator) error {
	if operator.ID == "" {
		operator.ID = uuid.New().String()
	}
	if err := r.db.Create(operator).Error; err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}
	return nil
}

// GetByUsername retrieves an operator by username.
func (r *GORMOperatorRepository) GetByUsername(username string) (*models.Operator, error) {
	return r.first("username = ?", username)
}

// GetByEmail retrieves an operator by email.
func (r *GORMOperatorRepository) GetByEmail(email string) (*models.Operator, error) {
	return r.first("email = ?", email)
}

// GetByID retrieves an operator by ID.
func (r *GORMOperatorRepository) GetByID(id string) (*models.Operator, error) {
	return r.first("id = ?", id)
}

func (r *GORMOperatorRepository) first(cond string, value string) (*models.Operator, error) {
	var operator models.Operator
	if err := r.db.First(&operator, cond, value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s: %w", value, ErrOperatorNotFound)
		}
		return nil, fmt.Errorf("failed to get operator %s: %w", value, err)
	}
	return &operator, nil
}

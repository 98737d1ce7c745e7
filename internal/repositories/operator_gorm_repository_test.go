package repositories_test

import (
	"fmt"
	"testing"

	"inventario/internal/models"
	"inventario/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newOperatorRepo(t *testing.T) *repositories.GORMOperatorRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Operator{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repositories.NewGORMOperatorRepository(db)
}

func TestGORMOperatorRepository_CreateAndGet(t *testing.T) {
	repo := newOperatorRepo(t)

	op := &models.Operator{Username: "caja1", Email: "caja1@tienda.example", Password: "hash"}
	require.NoError(t, repo.Create(op))
	require.NotEmpty(t, op.ID)
	_, err := uuid.Parse(op.ID)
	assert.NoError(t, err)

	byName, err := repo.GetByUsername("caja1")
	require.NoError(t, err)
	assert.Equal(t, op.ID, byName.ID)

	byEmail, err := repo.GetByEmail("caja1@tienda.example")
	require.NoError(t, err)
	assert.Equal(t, "caja1", byEmail.Username)

	byID, err := repo.GetByID(op.ID)
	require.NoError(t, err)
	assert.Equal(t, "caja1@tienda.example", byID.Email)
}

func TestGORMOperatorRepository_NotFound(t *testing.T) {
	repo := newOperatorRepo(t)

	_, err := repo.GetByUsername("ghost")
	assert.ErrorIs(t, err, repositories.ErrOperatorNotFound)
	_, err = repo.GetByID(uuid.New().String())
	assert.ErrorIs(t, err, repositories.ErrOperatorNotFound)
}

func TestGORMOperatorRepository_UniqueUsername(t *testing.T) {
	repo := newOperatorRepo(t)

	require.NoError(t, repo.Create(&models.Operator{Username: "caja1", Email: "a@tienda.example", Password: "x"}))
	err := repo.Create(&models.Operator{Username: "caja1", Email: "b@tienda.example", Password: "x"})
	assert.Error(t, err)
}

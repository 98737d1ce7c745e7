package middleware_test

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"inventario/internal/middleware"
	"inventario/internal/models"
	"inventario/internal/repositories"
	"inventario/internal/services"
	"inventario/pkg/metrics"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "test_jwt_secret"

func signed(t *testing.T, claims jwt.MapClaims, key string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

// MockOperatorRepository is a mock implementation of repositories.OperatorRepository
type MockOperatorRepository struct {
	mock.Mock
}

func (m *MockOperatorRepository) Create(operator *models.Operator) error {
	return m.Called(operator).Error(0)
}

func (m *MockOperatorRepository) GetByUsername(username string) (*models.Operator, error) {
	return m.lookup(m.Called(username))
}

func (m *MockOperatorRepository) GetByEmail(email string) (*models.Operator, error) {
	return m.lookup(m.Called(email))
}

func (m *MockOperatorRepository) GetByID(id string) (*models.Operator, error) {
	return m.lookup(m.Called(id))
}

func (m *MockOperatorRepository) lookup(args mock.Arguments) (*models.Operator, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Operator), args.Error(1)
}

func protectedApp() *fiber.App {
	repo := new(MockOperatorRepository)
	repo.On("GetByID", "op-1").Return(&models.Operator{ID: "op-1", Username: "operador"}, nil)
	repo.On("GetByID", "ghost").Return(nil, fmt.Errorf("ghost: %w", repositories.ErrOperatorNotFound))
	repo.On("GetByID", "broken").Return(nil, errors.New("database is locked"))
	auth := services.NewAuthService(repo, secret, zap.NewNop())
	app := fiber.New()
	app.Use(middleware.RequestIDHandler())
	app.Get("/me", middleware.AuthRequired(auth, zap.NewNop()), func(c *fiber.Ctx) error {
		return c.SendString(middleware.OperatorID(c))
	})
	return app
}

func TestAuthRequired(t *testing.T) {
	app := protectedApp()
	valid := signed(t, jwt.MapClaims{
		"operator_id": "op-1",
		"username":    "operador",
		"exp":         time.Now().Add(time.Hour).Unix(),
	}, secret)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized},
		{"bad signature", "Bearer " + signed(t, jwt.MapClaims{"operator_id": "op-1"}, "other"), fiber.StatusUnauthorized},
		{"expired", "Bearer " + signed(t, jwt.MapClaims{"operator_id": "op-1", "exp": time.Now().Add(-time.Hour).Unix()}, secret), fiber.StatusUnauthorized},
		{"no operator", "Bearer " + signed(t, jwt.MapClaims{"username": "x", "exp": time.Now().Add(time.Hour).Unix()}, secret), fiber.StatusUnauthorized},
		{"deleted operator", "Bearer " + signed(t, jwt.MapClaims{"operator_id": "ghost", "exp": time.Now().Add(time.Hour).Unix()}, secret), fiber.StatusUnauthorized},
		{"operator lookup fails", "Bearer " + signed(t, jwt.MapClaims{"operator_id": "broken", "exp": time.Now().Add(time.Hour).Unix()}, secret), fiber.StatusInternalServerError},
		{"valid", "Bearer " + valid, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == fiber.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, "op-1", string(body))
			}
		})
	}
}

func TestRequestIDHandler(t *testing.T) {
	app := fiber.New()
	app.Use(middleware.RequestIDHandler())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(middleware.RequestID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "abc-123", string(body))
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Len(t, string(body), 36)
	assert.Equal(t, string(body), resp.Header.Get("X-Request-ID"))
}

func TestMetricsLabelsByRoutePattern(t *testing.T) {
	m := metrics.New("test")
	app := fiber.New()
	app.Use(middleware.Metrics(m))
	app.Get("/products/:docId", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	for _, id := range []string{"a", "b"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/products/"+id, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/products/:docId", "204")))
}

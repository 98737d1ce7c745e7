package services

import (
	"errors"
	"fmt"
	"time"

	"inventario/internal/models"
	"inventario/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is returned for an unknown username or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	// ErrInvalidToken is returned for a malformed, forged or expired token.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnknownOperator is returned for a valid token whose operator no longer exists.
	ErrUnknownOperator = errors.New("token does not identify an existing operator")
)

// AuthService handles operator registration and token issuing.
type AuthService struct {
	operatorRepo repositories.OperatorRepository
	jwtSecret    []byte
	tokenTTL     time.Duration
	log          *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(operatorRepo repositories.OperatorRepository, jwtSecret string, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		operatorRepo: operatorRepo,
		jwtSecret:    []byte(jwtSecret),
		tokenTTL:     24 * time.Hour,
		log:          log,
	}
}

// RegisterOperator hashes the operator's password and saves the account.
func (s *AuthService) RegisterOperator(operator *models.Operator) error {
	if existing, err := s.operatorRepo.GetByUsername(operator.Username); err == nil && existing != nil {
		return fmt.Errorf("'%s': %w", operator.Username, ErrUsernameTaken)
	}
	if existing, err := s.operatorRepo.GetByEmail(operator.Email); err == nil && existing != nil {
		return fmt.Errorf("'%s': %w", operator.Email, ErrEmailTaken)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(operator.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	operator.Password = string(hashedPassword)

	if err := s.operatorRepo.Create(operator); err != nil {
		return fmt.Errorf("failed to register operator: %w", err)
	}
	return nil
}

// Login authenticates an operator and returns a signed JWT.
func (s *AuthService) Login(username, password string) (string, error) {
	operator, err := s.operatorRepo.GetByUsername(username)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(operator.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"operator_id": operator.ID,
		"username":    operator.Username,
		"exp":         now.Add(s.tokenTTL).Unix(),
		"iat":         now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		s.log.Debug("token validation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// Authenticate validates a token and loads the operator it was issued to.
func (s *AuthService) Authenticate(tokenString string) (*models.Operator, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	operatorID, _ := claims["operator_id"].(string)
	if operatorID == "" {
		return nil, ErrUnknownOperator
	}
	operator, err := s.operatorRepo.GetByID(operatorID)
	if err != nil {
		if errors.Is(err, repositories.ErrOperatorNotFound) {
			return nil, fmt.Errorf("%s: %w", operatorID, ErrUnknownOperator)
		}
		return nil, fmt.Errorf("failed to load operator: %w", err)
	}
	return operator, nil
}

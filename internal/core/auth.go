package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"threadhub/internal/identity"
	"threadhub/internal/repository"
	"threadhub/pkg/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidToken       = errors.New("invalid token")
)

// AuthService defines authentication operations
type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*models.User, error)
	UpdateUserRole(ctx context.Context, userID string, role models.UserRole) error
}

type authService struct {
	userRepo repository.UserRepository
	issuer   *identity.Issuer
}

// NewAuthService creates a new authentication service
func NewAuthService(userRepo repository.UserRepository, issuer *identity.Issuer) AuthService {
	return &authService{
		userRepo: userRepo,
		issuer:   issuer,
	}
}

// Register creates a new user account
func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	if err := models.ValidateRegisterRequest(&req); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, ErrUsernameTaken
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hashedPassword),
		Role:         models.UserRoleUser,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issuer.Issue(user.ID, user.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.LoginResponse{
		Token: token,
		User: models.UserProfile{
			ID:          user.ID,
			Username:    user.Username,
			DisplayName: user.Name(),
			CreatedAt:   user.CreatedAt,
		},
		ExpiresIn: int(time.Until(expiresAt).Seconds()),
	}, nil
}

// ValidateToken verifies a JWT token and returns the user
func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.issuer.Verify(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateUserRole changes the role of a user
func (s *authService) UpdateUserRole(ctx context.Context, userID string, role models.UserRole) error {
	switch role {
	case models.UserRoleUser, models.UserRoleModerator, models.UserRoleAdmin:
	default:
		return fmt.Errorf("invalid role %q", role)
	}
	return s.userRepo.UpdateRole(ctx, userID, role)
}

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"algoryth/internal/common"
	"algoryth/internal/common/security"
	"algoryth/internal/domain/model"
	"algoryth/internal/domain/repository"
	"algoryth/internal/platform/database"

	"github.com/google/uuid"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minNameLength     = 2
	minPasswordLength = 6
)

type AuthService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	tx          database.Transactor
	now         func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, profileRepo repository.ProfileRepository, tx database.Transactor) *AuthService {
	return &AuthService{userRepo: userRepo, profileRepo: profileRepo, tx: tx, now: time.Now}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
	Token   string      `json:"token"`
}

func validateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return common.ValidationError(common.CodeInvalidEmail, "email", "Please provide a valid email address")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return common.ValidationError(common.CodeInvalidPassword, "password", fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if name == "" || email == "" || req.Password == "" {
		return nil, common.ValidationError(common.CodeMissingRequiredFields, "", "Name, email and password are required")
	}
	if len([]rune(name)) < minNameLength {
		return nil, common.ValidationError(common.CodeInvalidName, "name", "Name must be at least 2 characters")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}

	userExists := common.NewCodedError(common.ErrConflict, common.CodeUserExists, "User with this email already exists")
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, userExists
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &model.User{
		ID:             uuid.NewString(),
		Name:           name,
		Email:          email,
		HashedPassword: hashedPassword,
		IsActive:       true,
		Role:           model.RoleUser, // Default role
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = s.tx.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return err
		}
		return s.profileRepo.Create(ctx, tx, model.NewUserProfile(uuid.NewString(), user.ID, now))
	})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, userExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := security.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{Message: "User registered successfully", User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, common.ValidationError(common.CodeMissingRequiredFields, "", "Email and password are required")
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	// Same message for unknown email and wrong password.
	invalid := common.NewCodedError(common.ErrUnauthorized, common.CodeInvalidCredentials, "Invalid email or password")

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, invalid
	}
	if !user.IsActive {
		return nil, common.NewCodedError(common.ErrForbidden, common.CodeAccountDisabled, "Account is disabled")
	}

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLogin = &now

	token, err := security.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{Message: "Login successful", User: user, Token: token}, nil
}

// Verify returns the user behind an already validated token.
func (s *AuthService) Verify(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("user no longer exists: %w", common.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mhargick-backend/config"
	"mhargick-backend/internal/domain"
	"mhargick-backend/pkg/logger"
	"mhargick-backend/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

// AuthUsecase handles credential auth: registration, login, JWT issuance and
// rotating refresh tokens.
type AuthUsecase struct {
	users domain.UserRepository
	cfg   *config.Config
}

func NewAuthUsecase(users domain.UserRepository, cfg *config.Config) *AuthUsecase {
	return &AuthUsecase{users: users, cfg: cfg}
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (a *AuthUsecase) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address")
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           utils.GenerateUUID(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(in.Name),
		Role:         domain.RoleCustomer,
	}
	if err := a.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Get().Info().Str("userId", user.ID).Msg("user registered")
	return user, nil
}

func (a *AuthUsecase) Login(ctx context.Context, email, password, device string) (*domain.User, *TokenPair, error) {
	user, err := a.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}

	tokens, err := a.issueTokens(ctx, user, device)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued. A revoked or expired token fails closed.
func (a *AuthUsecase) Refresh(ctx context.Context, refreshToken, device string) (*TokenPair, error) {
	stored, err := a.users.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if stored.Revoked || time.Now().After(stored.ExpiresAt) {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := a.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}

	if err := a.users.RevokeRefreshToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	return a.issueTokens(ctx, user, device)
}

func (a *AuthUsecase) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return a.users.RevokeRefreshToken(ctx, refreshToken)
}

func (a *AuthUsecase) issueTokens(ctx context.Context, user *domain.User, device string) (*TokenPair, error) {
	access, err := utils.GenerateJWT(user.ID, user.Email, user.Role, a.cfg.AccessTokenExpiry)
	if err != nil {
		return nil, err
	}

	refresh := &domain.RefreshToken{
		Token:     utils.GenerateUUID(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(a.cfg.RefreshTokenExpiry),
		Device:    device,
	}
	if err := a.users.SaveRefreshToken(ctx, refresh); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh.Token}, nil
}

// --- Profile ---

func (a *AuthUsecase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return a.users.GetByID(ctx, userID)
}

type ProfileInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

func (a *AuthUsecase) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*domain.User, error) {
	user, err := a.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != "" {
		user.Name = in.Name
	}
	user.Phone = in.Phone
	user.Address = in.Address
	user.City = in.City
	user.State = in.State

	if err := a.users.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

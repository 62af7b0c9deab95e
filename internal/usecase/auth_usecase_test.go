package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"mhargick-backend/config"
	"mhargick-backend/internal/domain"
	"mhargick-backend/pkg/utils"
)

func authConfig() *config.Config {
	return &config.Config{
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
	}
}

func init() {
	utils.SetSecret("test-secret")
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAuthUsecase(repo, authConfig())
	ctx := context.Background()

	user, err := uc.Register(ctx, RegisterInput{
		Email:    "Ada@Example.com",
		Password: "correct horse",
		Name:     "Ada",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.Role != domain.RoleCustomer {
		t.Errorf("role = %q, want customer", user.Role)
	}
	if user.PasswordHash == "correct horse" || user.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}

	got, tokens, err := uc.Login(ctx, "ada@example.com", "correct horse", "test-device")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("logged-in user = %s, want %s", got.ID, user.ID)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Error("login must issue both tokens")
	}

	if _, _, err := uc.Login(ctx, "ada@example.com", "wrong", "d"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("wrong password: err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := uc.Login(ctx, "nobody@example.com", "x", "d"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("unknown email: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	uc := NewAuthUsecase(newFakeUserRepo(), authConfig())
	ctx := context.Background()

	if _, err := uc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "password1", Name: "A"}); err != nil {
		t.Fatal(err)
	}
	_, err := uc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "password2", Name: "B"})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	uc := NewAuthUsecase(newFakeUserRepo(), authConfig())
	ctx := context.Background()

	if _, err := uc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "password1"}); err == nil {
		t.Error("bad email should be rejected")
	}
	if _, err := uc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "short"}); err == nil {
		t.Error("short password should be rejected")
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAuthUsecase(repo, authConfig())
	ctx := context.Background()

	if _, err := uc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "password1", Name: "A"}); err != nil {
		t.Fatal(err)
	}
	_, tokens, err := uc.Login(ctx, "a@b.com", "password1", "d")
	if err != nil {
		t.Fatal(err)
	}

	rotated, err := uc.Refresh(ctx, tokens.RefreshToken, "d")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Error("refresh must issue a new refresh token")
	}

	// The presented token is revoked: replaying it fails.
	if _, err := uc.Refresh(ctx, tokens.RefreshToken, "d"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("replayed token: err = %v, want ErrInvalidCredentials", err)
	}
	// The rotated token still works.
	if _, err := uc.Refresh(ctx, rotated.RefreshToken, "d"); err != nil {
		t.Errorf("rotated token: %v", err)
	}
}

func TestRefreshRejectsExpired(t *testing.T) {
	repo := newFakeUserRepo()
	cfg := authConfig()
	cfg.RefreshTokenExpiry = -time.Hour
	uc := NewAuthUsecase(repo, cfg)
	ctx := context.Background()

	if _, err := uc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "password1", Name: "A"}); err != nil {
		t.Fatal(err)
	}
	_, tokens, err := uc.Login(ctx, "a@b.com", "password1", "d")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := uc.Refresh(ctx, tokens.RefreshToken, "d"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("expired token: err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	repo := newFakeUserRepo()
	uc := NewAuthUsecase(repo, authConfig())
	ctx := context.Background()

	if _, err := uc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "password1", Name: "A"}); err != nil {
		t.Fatal(err)
	}
	_, tokens, err := uc.Login(ctx, "a@b.com", "password1", "d")
	if err != nil {
		t.Fatal(err)
	}

	if err := uc.Logout(ctx, tokens.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := uc.Refresh(ctx, tokens.RefreshToken, "d"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("post-logout refresh: err = %v, want ErrInvalidCredentials", err)
	}
}

package postgres

import (
	"context"
	"errors"

	"mhargick-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) domain.UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, email, password_hash, name, role, phone, address, city, state, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role,
		&u.Phone, &u.Address, &u.City, &u.State, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	q := db(ctx, r.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, role, phone, address, city, state, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,now(),now())`,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Role,
		user.Phone, user.Address, user.City, user.State,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrEmailTaken
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := db(ctx, r.pool)
	user, err := scanUser(q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInvalidCredentials
	}
	return user, err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	q := db(ctx, r.pool)
	return scanUser(q.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	q := db(ctx, r.pool)
	_, err := q.Exec(ctx, `
		UPDATE users
		SET name = $2, phone = $3, address = $4, city = $5, state = $6, updated_at = now()
		WHERE id = $1`,
		user.ID, user.Name, user.Phone, user.Address, user.City, user.State,
	)
	return err
}

// --- Refresh Tokens ---

func (r *userRepository) SaveRefreshToken(ctx context.Context, token *domain.RefreshToken) error {
	q := db(ctx, r.pool)
	_, err := q.Exec(ctx, `
		INSERT INTO refresh_tokens (token, user_id, expires_at, created_at, revoked, device)
		VALUES ($1,$2,$3,now(),false,$4)`,
		token.Token, token.UserID, token.ExpiresAt, token.Device,
	)
	return err
}

func (r *userRepository) GetRefreshToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	q := db(ctx, r.pool)
	var t domain.RefreshToken
	err := q.QueryRow(ctx, `
		SELECT token, user_id, expires_at, created_at, revoked, device
		FROM refresh_tokens WHERE token = $1`, token).
		Scan(&t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt, &t.Revoked, &t.Device)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *userRepository) RevokeRefreshToken(ctx context.Context, token string) error {
	q := db(ctx, r.pool)
	_, err := q.Exec(ctx, `UPDATE refresh_tokens SET revoked = true WHERE token = $1`, token)
	return err
}

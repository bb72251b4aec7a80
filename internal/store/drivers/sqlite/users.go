package sqlite

import (
	"context"
	"database/sql"

	"github.com/DSAshv/urbanAssist/internal/domain"
	"github.com/DSAshv/urbanAssist/internal/store"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, first_name, last_name, email, phone, address,
	password_hash, role, active, suspended, suspension_reason,
	mfa_enabled, mfa_secret, refresh_token_hash, profile_picture, push_token,
	created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.Address,
		&u.PasswordHash, &u.Role, &u.Active, &u.Suspended, &u.SuspensionReason,
		&u.MFAEnabled, &u.MFASecret, &u.RefreshTokenHash, &u.ProfilePicture, &u.PushToken,
		&u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, first_name, last_name, email, phone, address, password_hash, role)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.Address, u.PasswordHash, u.Role,
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID string, upd store.ProfileUpdate) error {
	// COALESCE(NULLIF(?, ''), col) keeps the existing value when the
	// caller left a field blank.
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET
			first_name = COALESCE(NULLIF(?, ''), first_name),
			last_name = COALESCE(NULLIF(?, ''), last_name),
			phone = COALESCE(NULLIF(?, ''), phone),
			address = COALESCE(NULLIF(?, ''), address),
			profile_picture = COALESCE(NULLIF(?, ''), profile_picture),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		upd.FirstName, upd.LastName, upd.Phone, upd.Address, upd.ProfilePicture, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID string, role domain.Role) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		role, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) SetSuspension(ctx context.Context, userID string, suspended bool, reason string) error {
	if !suspended {
		reason = ""
	}
	res, err := r.q.ExecContext(ctx, `
		UPDATE users SET
			suspended = ?,
			active = ?,
			suspension_reason = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		suspended, !suspended, reason, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateRefreshTokenHash(ctx context.Context, userID string, hash string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		hash, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdateMFASecret(ctx context.Context, userID string, secret string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET mfa_secret = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		secret, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) EnableMFA(ctx context.Context, userID string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET mfa_enabled = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) DisableMFA(ctx context.Context, userID string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET mfa_enabled = 0, mfa_secret = '', updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *usersRepo) UpdatePushToken(ctx context.Context, userID string, token string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET push_token = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		token, userID,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// internal/repository/postgres/auth_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"neusentra-service/internal/domain/auth"
	xerrors "neusentra-service/internal/pkg/errors"
)

const uniqueViolation = "23505"

type AuthRepository struct {
	db *pgxpool.Pool
}

func NewAuthRepository(db *pgxpool.Pool) *AuthRepository {
	return &AuthRepository{db: db}
}

// UserCount returns the total number of user rows.
func (r *AuthRepository) UserCount(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM neusentra.users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// IsBootstrapped reports whether the one-time system_state row exists.
func (r *AuthRepository) IsBootstrapped(ctx context.Context) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM neusentra.system_state)`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to read system state: %w", err)
	}
	return exists, nil
}

// CreateSuperAdmin inserts the bootstrap marker row and the superadmin user
// in one transaction. The primary-key constraint on system_state makes the
// transition at-most-once: a concurrent caller's insert conflicts, the whole
// transaction rolls back and ErrAlreadyBootstrapped is returned.
func (r *AuthRepository) CreateSuperAdmin(ctx context.Context, fullname, username, passwordHash string) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO neusentra.system_state (id, bootstrapped_at)
		VALUES (TRUE, CURRENT_TIMESTAMP)
	`)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return 0, xerrors.ErrAlreadyBootstrapped
		}
		return 0, fmt.Errorf("failed to mark system bootstrapped: %w", err)
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO neusentra.users (fullname, username, password_hash, role_id)
		VALUES (
			$1,
			$2,
			$3,
			(SELECT id FROM neusentra.roles WHERE name = 'superadmin' LIMIT 1)
		)
		RETURNING id
	`, fullname, username, passwordHash).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create superadmin: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit bootstrap: %w", err)
	}
	return id, nil
}

// FetchUserByUsername retrieves a user with its role name and permission set
// in a single joined read. Returns (nil, nil) when no such user exists; the
// caller decides how much of that to reveal.
func (r *AuthRepository) FetchUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	query := `
		SELECT
			u.id, u.fullname, u.username, u.password_hash, u.is_active,
			r.name AS role,
			rp.can_manage_devices, rp.can_manage_policies, rp.can_view_logs,
			rp.can_manage_users, rp.can_manage_network, rp.can_manage_blocklists,
			rp.can_manage_scheduled_tasks
		FROM neusentra.users u
		JOIN neusentra.roles r ON u.role_id = r.id
		JOIN neusentra.role_permissions rp ON r.id = rp.role_id
		WHERE u.username = $1
		LIMIT 1
	`

	var user auth.User
	err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID, &user.Fullname, &user.Username, &user.PasswordHash, &user.IsActive,
		&user.Role,
		&user.Permissions.CanManageDevices, &user.Permissions.CanManagePolicies,
		&user.Permissions.CanViewLogs, &user.Permissions.CanManageUsers,
		&user.Permissions.CanManageNetwork, &user.Permissions.CanManageBlocklists,
		&user.Permissions.CanManageScheduledTasks,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

// GetSuperAdminPermissions returns the permission set attached to the
// superadmin role.
func (r *AuthRepository) GetSuperAdminPermissions(ctx context.Context) (auth.Permissions, error) {
	query := `
		SELECT
			rp.can_manage_devices, rp.can_manage_policies, rp.can_view_logs,
			rp.can_manage_users, rp.can_manage_network, rp.can_manage_blocklists,
			rp.can_manage_scheduled_tasks
		FROM neusentra.roles r
		INNER JOIN neusentra.role_permissions rp ON r.id = rp.role_id
		WHERE r.name = 'superadmin'
		LIMIT 1
	`

	var perms auth.Permissions
	err := r.db.QueryRow(ctx, query).Scan(
		&perms.CanManageDevices, &perms.CanManagePolicies, &perms.CanViewLogs,
		&perms.CanManageUsers, &perms.CanManageNetwork, &perms.CanManageBlocklists,
		&perms.CanManageScheduledTasks,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Permissions{}, xerrors.ErrQueryFailed
	}
	if err != nil {
		return auth.Permissions{}, fmt.Errorf("failed to fetch superadmin permissions: %w", err)
	}

	return perms, nil
}

// OpenLoginSession appends a login record and returns its id, which becomes
// the session cache key and the loginId token claim.
func (r *AuthRepository) OpenLoginSession(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO neusentra.user_login (user_id)
		VALUES ($1)
		RETURNING id
	`, userID).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to open login session: %w", err)
	}
	return id, nil
}

// CloseLoginSession stamps logout_at on a login record. The row is kept,
// never deleted: user_login is an append-only audit trail. Closing an
// already-closed or unknown session is a no-op.
func (r *AuthRepository) CloseLoginSession(ctx context.Context, loginID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE neusentra.user_login
		SET logout_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND logout_at IS NULL
	`, loginID)
	if err != nil {
		return fmt.Errorf("failed to close login session: %w", err)
	}
	return nil
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fmeta/backend/internal/db"
	"github.com/fmeta/backend/internal/models"
)

const accountColumns = `id, name, username, COALESCE(email, ''), COALESCE(phone, ''), password_hash,
        bio, relationship_status, verified, COALESCE(verification_token, ''), verification_expires,
        followers, following, posts, created_at, updated_at`

// PostgresAccountRepository provides PostgreSQL-backed persistence for accounts.
type PostgresAccountRepository struct {
	pool db.Pool
}

// NewPostgresAccountRepository constructs an account repository backed by PostgreSQL.
func NewPostgresAccountRepository(pool db.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

var _ AccountRepository = (*PostgresAccountRepository)(nil)

// Create persists a new account record.
func (r *PostgresAccountRepository) Create(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO accounts (id, name, username, email, phone, password_hash, bio, relationship_status,
            verified, verification_token, verification_expires, followers, following, posts, created_at, updated_at)
        VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8, $9, NULLIF($10, ''), $11, $12, $13, $14, $15, $16)
    `, account.ID, account.Name, account.Username, account.Email, account.Phone, account.PasswordHash,
		account.Bio, string(account.RelationshipStatus), account.Verified, account.VerificationToken,
		nullableTime(account.VerificationExpires), nonNil(account.Followers), nonNil(account.Following),
		nonNil(account.Posts), account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if errors.Is(translatePgError(err), ErrConflict) {
			return ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// FindByID fetches an account by its identifier.
func (r *PostgresAccountRepository) FindByID(ctx context.Context, id string) (models.Account, error) {
	return r.findOne(ctx, "select account by id", `WHERE id = $1`, id)
}

// FindByLogin fetches the account whose email, phone or username equals identifier.
func (r *PostgresAccountRepository) FindByLogin(ctx context.Context, identifier string) (models.Account, error) {
	return r.findOne(ctx, "select account by login",
		`WHERE email = lower($1) OR phone = $1 OR username = $1 ORDER BY created_at LIMIT 1`, identifier)
}

// FindByVerificationToken fetches the account holding a pending verification token.
func (r *PostgresAccountRepository) FindByVerificationToken(ctx context.Context, token string) (models.Account, error) {
	if token == "" {
		return models.Account{}, ErrNotFound
	}
	return r.findOne(ctx, "select account by verification token", `WHERE verification_token = $1`, token)
}

func (r *PostgresAccountRepository) findOne(ctx context.Context, op, where string, args ...any) (models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Account{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts `+where, args...)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, ErrNotFound
		}
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

// FindByIDs fetches every existing account among ids.
func (r *PostgresAccountRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.findMany(ctx, "select accounts by id", `WHERE id = ANY($1)`, ids)
}

// FindConflicting fetches accounts that share the username, email or phone.
func (r *PostgresAccountRepository) FindConflicting(ctx context.Context, username, email, phone string) ([]models.Account, error) {
	return r.findMany(ctx, "select conflicting accounts",
		`WHERE username = $1 OR email = NULLIF(lower($2), '') OR phone = NULLIF($3, '')`, username, email, phone)
}

// SearchByUsername returns accounts whose username contains query, ignoring case.
func (r *PostgresAccountRepository) SearchByUsername(ctx context.Context, query string, limit int) ([]models.Account, error) {
	if limit <= 0 {
		limit = 20
	}
	return r.findMany(ctx, "search accounts",
		`WHERE strpos(lower(username), lower($1)) > 0 ORDER BY username LIMIT $2`, query, limit)
}

func (r *PostgresAccountRepository) findMany(ctx context.Context, op, where string, args ...any) ([]models.Account, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT `+accountColumns+` FROM accounts `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

// Update modifies the profile and verification fields of an account.
func (r *PostgresAccountRepository) Update(ctx context.Context, account models.Account) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE accounts
        SET name = $2, bio = $3, relationship_status = $4, verified = $5,
            verification_token = NULLIF($6, ''), verification_expires = $7, updated_at = $8
        WHERE id = $1
    `, account.ID, account.Name, account.Bio, string(account.RelationshipStatus), account.Verified,
		account.VerificationToken, nullableTime(account.VerificationExpires), account.UpdatedAt)
	if err != nil {
		if errors.Is(translatePgError(err), ErrConflict) {
			return ErrConflict
		}
		return fmt.Errorf("update account: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Follow records the relationship on both accounts inside one transaction.
func (r *PostgresAccountRepository) Follow(ctx context.Context, actorID, targetID string) error {
	now := time.Now().UTC()
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := requireAccounts(ctx, tx, actorID, targetID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
            UPDATE accounts SET following = array_append(following, $2::text), updated_at = $3
            WHERE id = $1 AND NOT ($2::text = ANY(following))
        `, actorID, targetID, now)
		if err != nil {
			return fmt.Errorf("append following: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrUnchanged
		}

		if _, err := tx.Exec(ctx, `
            UPDATE accounts SET followers = array_append(followers, $2::text), updated_at = $3
            WHERE id = $1 AND NOT ($2::text = ANY(followers))
        `, targetID, actorID, now); err != nil {
			return fmt.Errorf("append follower: %w", err)
		}
		return nil
	})
}

// Unfollow removes the relationship from both accounts inside one transaction.
func (r *PostgresAccountRepository) Unfollow(ctx context.Context, actorID, targetID string) error {
	now := time.Now().UTC()
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := requireAccounts(ctx, tx, actorID, targetID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `
            UPDATE accounts SET following = array_remove(following, $2::text), updated_at = $3
            WHERE id = $1 AND $2::text = ANY(following)
        `, actorID, targetID, now)
		if err != nil {
			return fmt.Errorf("remove following: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrUnchanged
		}

		if _, err := tx.Exec(ctx, `
            UPDATE accounts SET followers = array_remove(followers, $2::text), updated_at = $3
            WHERE id = $1
        `, targetID, actorID, now); err != nil {
			return fmt.Errorf("remove follower: %w", err)
		}
		return nil
	})
}

// AppendPost adds postID to the account's owned posts.
func (r *PostgresAccountRepository) AppendPost(ctx context.Context, accountID, postID string) error {
	return r.execOne(ctx, "append post", `
        UPDATE accounts SET posts = array_append(posts, $2::text)
        WHERE id = $1 AND NOT ($2::text = ANY(posts))
    `, accountID, postID)
}

// RemovePost removes postID from the account's owned posts.
func (r *PostgresAccountRepository) RemovePost(ctx context.Context, accountID, postID string) error {
	return r.execOne(ctx, "remove post", `
        UPDATE accounts SET posts = array_remove(posts, $2::text) WHERE id = $1
    `, accountID, postID)
}

func (r *PostgresAccountRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)`, args[0]).Scan(&exists); err != nil {
			return fmt.Errorf("%s: check account: %w", op, err)
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

func requireAccounts(ctx context.Context, tx pgx.Tx, ids ...string) error {
	var found int
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM accounts WHERE id = ANY($1)`, ids).Scan(&found); err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if found != len(uniqueStrings(ids)) {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var (
		account models.Account
		status  string
		expires *time.Time
	)
	if err := row.Scan(&account.ID, &account.Name, &account.Username, &account.Email, &account.Phone,
		&account.PasswordHash, &account.Bio, &status, &account.Verified, &account.VerificationToken,
		&expires, &account.Followers, &account.Following, &account.Posts, &account.CreatedAt,
		&account.UpdatedAt); err != nil {
		return models.Account{}, err
	}

	account.RelationshipStatus = models.RelationshipStatus(status)
	if expires != nil {
		account.VerificationExpires = expires.UTC()
	}
	account.CreatedAt = account.CreatedAt.UTC()
	account.UpdatedAt = account.UpdatedAt.UTC()
	return account, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

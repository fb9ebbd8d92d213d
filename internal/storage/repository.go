package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/guhrizzo/my-wallet/internal/core"
	"github.com/guhrizzo/my-wallet/internal/ledger"
)

// ErrDuplicateEmail is returned by CreateUser when the email is taken.
var ErrDuplicateEmail = errors.New("email already registered")

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// User is an account row. PasswordHash is a bcrypt hash, never the password.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// SQLiteRepository is the durable document store: transactions plus user
// accounts, backed by a single SQLite file.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ledger.TransactionWriter. The repository assigns the id
// and stamps occurred_at with its own clock; whatever the caller put in
// those fields is discarded.
func (r *SQLiteRepository) Append(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.ID = uuid.NewString()
	t.OccurredAt = r.now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, owner_id, description, amount_cents, type, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, t.Description, t.Amount.Cents, string(t.Type), t.OccurredAt.UnixNano())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", t.ID,
		"owner_id", t.OwnerID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents)

	return t, nil
}

// Remove implements ledger.TransactionRemover. Scoped by owner; a row owned
// by someone else looks exactly like a missing row.
func (r *SQLiteRepository) Remove(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}

	slog.InfoContext(ctx, "Transaction deleted", "id", id, "owner_id", ownerID)
	return nil
}

// ListPeriod implements ledger.TransactionLister.
func (r *SQLiteRepository) ListPeriod(ctx context.Context, ownerID string, start, end time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, description, amount_cents, type, occurred_at
		 FROM transactions
		 WHERE owner_id = ? AND occurred_at >= ? AND occurred_at <= ?
		 ORDER BY occurred_at DESC`,
		ownerID, start.UTC().UnixNano(), end.UTC().UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t      core.Transaction
			typ    string
			atNano int64
		)
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Description, &t.Amount.Cents, &typ, &atNano); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ)
		t.OccurredAt = time.Unix(0, atNano).UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// CreateUser registers an account with an already-hashed password.
func (r *SQLiteRepository) CreateUser(ctx context.Context, email, passwordHash string) (User, error) {
	u := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    r.now().UTC(),
	}

	var exists int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM users WHERE email = ?`, email).Scan(&exists); err != nil {
		return User{}, fmt.Errorf("check email: %w", err)
	}
	if exists > 0 {
		return User{}, ErrDuplicateEmail
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt.UnixNano())
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", u.ID, "email", u.Email)
	return u, nil
}

// GetUserByEmail looks up an account for credential verification.
func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var (
		u      User
		atNano int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &atNano)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	u.CreatedAt = time.Unix(0, atNano).UTC()
	return u, nil
}

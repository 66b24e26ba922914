package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ruralpay/myaccount/internal/models"
	"github.com/ruralpay/myaccount/internal/repository"
)

const accountColumns = `id, account_user_id, account_number, account_status, balance,
		registered_at, unregistered_at, created_at, updated_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		account        models.Account
		unregisteredAt sql.NullTime
	)
	err := row.Scan(&account.ID, &account.UserID, &account.AccountNumber, &account.Status, &account.Balance,
		&account.RegisteredAt, &unregisteredAt, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if !account.Status.Valid() {
		return nil, fmt.Errorf("account %s has unknown status %q", account.AccountNumber, account.Status)
	}
	if unregisteredAt.Valid {
		account.UnregisteredAt = &unregisteredAt.Time
	}
	return &account, nil
}

func (r *AccountRepository) findOne(ctx context.Context, where string, arg any) (*models.Account, error) {
	account, err := scanAccount(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *AccountRepository) FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	return r.findOne(ctx, `WHERE account_number = $1`, accountNumber)
}

func (r *AccountRepository) FindLatest(ctx context.Context) (*models.Account, error) {
	account, err := scanAccount(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY id DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find latest account: %w", err)
	}
	return account, nil
}

func (r *AccountRepository) FindByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts for user %d: %w", userID, err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE account_user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count accounts for user %d: %w", userID, err)
	}
	return count, nil
}

func (r *AccountRepository) Save(ctx context.Context, account *models.Account) (*models.Account, error) {
	now := time.Now()
	q := conn(ctx, r.db)

	if account.ID == 0 {
		err := q.QueryRowContext(ctx, `
			INSERT INTO accounts (account_user_id, account_number, account_status, balance, registered_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING id`,
			account.UserID, account.AccountNumber, account.Status, account.Balance, account.RegisteredAt, now,
		).Scan(&account.ID)
		if err != nil {
			return nil, fmt.Errorf("insert account %s: %w", account.AccountNumber, err)
		}
		account.CreatedAt = now
		account.UpdatedAt = now
		return account, nil
	}

	result, err := q.ExecContext(ctx, `
		UPDATE accounts
		SET account_status = $1, balance = $2, unregistered_at = $3, updated_at = $4
		WHERE id = $5`,
		account.Status, account.Balance, account.UnregisteredAt, now, account.ID)
	if err != nil {
		return nil, fmt.Errorf("update account %s: %w", account.AccountNumber, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, repository.ErrNotFound
	}

	account.UpdatedAt = now
	return account, nil
}

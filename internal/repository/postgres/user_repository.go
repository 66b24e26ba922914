package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ruralpay/myaccount/internal/models"
	"github.com/ruralpay/myaccount/internal/repository"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.AccountUser, error) {
	var user models.AccountUser
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at
		FROM account_users
		WHERE id = $1`, id).Scan(&user.ID, &user.Name, &user.CreatedAt, &user.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return &user, nil
}

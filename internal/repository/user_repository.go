package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/repository/base"
)

const userColumns = `id::text, name, COALESCE(state, ''), mobile, role, telegram_chat_id, created_at`

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(db base.DB) *UserRepository {
	return &UserRepository{Repository: base.NewRepository(db)}
}

// Create inserts a user and fills CreatedAt. An empty ID is generated.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, name, state, mobile, role, telegram_chat_id)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, NULLIF($3, ''), $4, $5, $6)
		RETURNING id::text, created_at
	`

	err := r.DB().QueryRow(
		ctx, query,
		user.ID,
		user.Name,
		user.State,
		user.Mobile,
		user.Role,
		user.TelegramChatID,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID returns nil when the user does not exist
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if !base.ValidID(id) {
		return nil, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.DB().QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

// GetByTelegramChat returns nil when no user linked the chat
func (r *UserRepository) GetByTelegramChat(ctx context.Context, chatID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_chat_id = $1`

	user, err := scanUser(r.DB().QueryRow(ctx, query, chatID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by telegram chat: %w", err)
	}

	return user, nil
}

// Update changes name, state and telegram link
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $2, state = NULLIF($3, ''), telegram_chat_id = $4
		WHERE id = $1
	`

	affected, err := r.ExecAffected(ctx, query, user.ID, user.Name, user.State, user.TelegramChatID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// ListByRole returns users of a role ordered by name
func (r *UserRepository) ListByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY name ASC`

	rows, err := r.DB().Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.State,
		&user.Mobile,
		&user.Role,
		&user.TelegramChatID,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

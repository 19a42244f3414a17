package repository

import (
	"context"
	"errors"
	"fmt"

	"poll-be/internal/domain"
	"poll-be/pkg/database"

	"github.com/jackc/pgx/v5"
)

const removeBookmarkQuery = `
	UPDATE users
	SET bookmarked_polls = array_remove(bookmarked_polls, $1::text)
	WHERE $1::text = ANY(bookmarked_polls)
`

type PostgresUserRepository struct {
	db *database.PostgresDB
}

func NewPostgresUserRepository(db *database.PostgresDB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// Create inserts a user, refreshing the display fields when it already exists
func (r *PostgresUserRepository) Create(ctx context.Context, user *domain.User) error {
	bookmarks := user.BookmarkedPolls
	if bookmarks == nil {
		bookmarks = []string{}
	}
	query := `
		INSERT INTO users (id, full_name, user_name, email, profile_image_url, bookmarked_polls)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			user_name = EXCLUDED.user_name,
			email = EXCLUDED.email,
			profile_image_url = EXCLUDED.profile_image_url
		RETURNING created_at
	`
	err := r.db.Pool.QueryRow(ctx, query,
		user.ID,
		user.FullName,
		user.UserName,
		user.Email,
		user.ProfileImageURL,
		bookmarks,
	).Scan(&user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID gets a user by ID
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	query := `
		SELECT id, full_name, user_name, email, profile_image_url, bookmarked_polls, created_at
		FROM users
		WHERE id = $1
	`
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.FullName,
		&u.UserName,
		&u.Email,
		&u.ProfileImageURL,
		&u.BookmarkedPolls,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u.BookmarkedPolls == nil {
		u.BookmarkedPolls = []string{}
	}
	return &u, nil
}

// GetSummaries gets display metadata for the given users
func (r *PostgresUserRepository) GetSummaries(ctx context.Context, ids []string) (map[string]domain.UserSummary, error) {
	out := make(map[string]domain.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query := `
		SELECT id, full_name, user_name, profile_image_url
		FROM users
		WHERE id = ANY($1::text[])
	`
	rows, err := r.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get user summaries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s domain.UserSummary
		if err := rows.Scan(&s.ID, &s.FullName, &s.UserName, &s.ProfileImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan user summary: %w", err)
		}
		out[s.ID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user summaries: %w", err)
	}
	return out, nil
}

// ToggleBookmark flips pollID in the bookmark set with a single UPDATE
func (r *PostgresUserRepository) ToggleBookmark(ctx context.Context, userID, pollID string) (bool, []string, error) {
	query := `
		UPDATE users
		SET bookmarked_polls = CASE
			WHEN $2::text = ANY(bookmarked_polls) THEN array_remove(bookmarked_polls, $2::text)
			ELSE array_append(bookmarked_polls, $2::text)
		END
		WHERE id = $1
		RETURNING bookmarked_polls
	`
	var set []string
	err := r.db.Pool.QueryRow(ctx, query, userID, pollID).Scan(&set)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil, domain.ErrUserNotFound
	}
	if err != nil {
		return false, nil, fmt.Errorf("failed to toggle bookmark: %w", err)
	}
	if set == nil {
		set = []string{}
	}
	return contains(set, pollID), set, nil
}

// RemoveBookmarkEverywhere drops pollID from every user's bookmarks
func (r *PostgresUserRepository) RemoveBookmarkEverywhere(ctx context.Context, pollID string) error {
	if _, err := r.db.Pool.Exec(ctx, removeBookmarkQuery, pollID); err != nil {
		return fmt.Errorf("failed to remove bookmarks: %w", err)
	}
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pitstop-trips/backend/internal/models"
	"github.com/pitstop-trips/backend/pkg/database"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

const userColumns = `id, firebase_uid, email, COALESCE(name, ''), profile_pic, created_at`

// Repository handles users persistence.
type Repository struct {
	db database.DB
}

// NewRepository creates a users repository.
func NewRepository(db database.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts the user or refreshes email and name for an existing Firebase UID.
func (r *Repository) Save(ctx context.Context, firebaseUID, email, name string) (*models.User, error) {
	const q = `INSERT INTO users (firebase_uid, email, name)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (firebase_uid) DO UPDATE SET email = EXCLUDED.email, name = COALESCE(EXCLUDED.name, users.name)
		RETURNING ` + userColumns
	u, err := scanUser(r.db.QueryRow(ctx, q, firebaseUID, email, name))
	if err != nil {
		return nil, fmt.Errorf("save user: %w", err)
	}
	return u, nil
}

// GetByFirebaseUID looks a user up by Firebase UID.
func (r *Repository) GetByFirebaseUID(ctx context.Context, uid string) (*models.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE firebase_uid = $1`, uid)
}

// GetByID looks a user up by id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *Repository) get(ctx context.Context, q string, arg any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// Search matches name or email. When excludeID is set, that user and everyone they already have
// a friendship row with (pending or accepted) are left out.
func (r *Repository) Search(ctx context.Context, term string, excludeID int64, limit int) ([]models.UserSummary, error) {
	const q = `SELECT id, COALESCE(name, ''), email, profile_pic FROM users
		WHERE (name ILIKE $1 OR email ILIKE $1)
		  AND ($2::bigint = 0 OR (
		    id <> $2 AND id NOT IN (
		      SELECT CASE WHEN sender_id = $2 THEN receiver_id ELSE sender_id END
		      FROM friendships WHERE sender_id = $2 OR receiver_id = $2
		    )
		  ))
		ORDER BY name, id
		LIMIT $3`
	rows, err := r.db.Query(ctx, q, "%"+escapeLike(term)+"%", excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	list := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.ProfilePic); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}

// SetProfilePic stores the picture URL for a user.
func (r *Repository) SetProfilePic(ctx context.Context, id int64, url string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET profile_pic = $1 WHERE id = $2`, url, id)
	if err != nil {
		return fmt.Errorf("set profile pic: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.FirebaseUID, &u.Email, &u.Name, &u.ProfilePic, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

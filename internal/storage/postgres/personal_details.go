package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvaleed/privatedetails/internal/domain"
)

// PersonalDetailsRepository implements storage.PersonalDetailsRepository using PostgreSQL.
type PersonalDetailsRepository struct {
	pool *pgxpool.Pool
}

// NewPersonalDetailsRepository creates a new personal details repository.
func NewPersonalDetailsRepository(pool *pgxpool.Pool) *PersonalDetailsRepository {
	return &PersonalDetailsRepository{pool: pool}
}

const detailsColumns = `user_id, COALESCE(to_char(dob, 'YYYY-MM-DD'), ''),
	legal_first_name, legal_last_name, updated_at, version`

// Get retrieves the details stored for a user.
func (r *PersonalDetailsRepository) Get(ctx context.Context, userID uuid.UUID) (*domain.PrivatePersonalDetails, error) {
	db := getDB(ctx, r.pool)

	row := db.QueryRow(ctx, `
		SELECT `+detailsColumns+`
		FROM private_personal_details WHERE user_id = $1`, userID)

	return r.scanDetails(row)
}

// UpdateDateOfBirth upserts the date of birth, leaving the legal name untouched.
func (r *PersonalDetailsRepository) UpdateDateOfBirth(ctx context.Context, userID uuid.UUID, dob string) (*domain.PrivatePersonalDetails, error) {
	db := getDB(ctx, r.pool)

	row := db.QueryRow(ctx, `
		INSERT INTO private_personal_details (user_id, dob, updated_at, version)
		VALUES ($1, $2::text::date, $3, 1)
		ON CONFLICT (user_id) DO UPDATE SET
			dob = EXCLUDED.dob,
			updated_at = EXCLUDED.updated_at,
			version = private_personal_details.version + 1
		RETURNING `+detailsColumns,
		userID,
		nullableDate(dob),
		time.Now().UTC(),
	)

	return r.scanDetails(row)
}

// UpdateLegalName upserts both legal name parts, leaving the date of birth untouched.
func (r *PersonalDetailsRepository) UpdateLegalName(ctx context.Context, userID uuid.UUID, first, last string) (*domain.PrivatePersonalDetails, error) {
	db := getDB(ctx, r.pool)

	row := db.QueryRow(ctx, `
		INSERT INTO private_personal_details (user_id, legal_first_name, legal_last_name, updated_at, version)
		VALUES ($1, $2, $3, $4, 1)
		ON CONFLICT (user_id) DO UPDATE SET
			legal_first_name = EXCLUDED.legal_first_name,
			legal_last_name = EXCLUDED.legal_last_name,
			updated_at = EXCLUDED.updated_at,
			version = private_personal_details.version + 1
		RETURNING `+detailsColumns,
		userID,
		first,
		last,
		time.Now().UTC(),
	)

	return r.scanDetails(row)
}

// RecordChange appends a history entry.
func (r *PersonalDetailsRepository) RecordChange(ctx context.Context, change domain.DetailsChange) error {
	db := getDB(ctx, r.pool)

	_, err := db.Exec(ctx, `
		INSERT INTO private_personal_details_history (id, user_id, change_set, changed_at)
		VALUES ($1, $2, $3, $4)`,
		change.ID,
		change.UserID,
		string(change.ChangeSet),
		change.ChangedAt,
	)

	return mapError(err)
}

// ListChanges returns a user's change history, newest first.
func (r *PersonalDetailsRepository) ListChanges(ctx context.Context, userID uuid.UUID, limit int) ([]domain.DetailsChange, error) {
	db := getDB(ctx, r.pool)

	if limit <= 0 || limit > 100 {
		limit = 100
	}

	rows, err := db.Query(ctx, `
		SELECT id, user_id, change_set, changed_at
		FROM private_personal_details_history
		WHERE user_id = $1
		ORDER BY changed_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var changes []domain.DetailsChange
	for rows.Next() {
		var c domain.DetailsChange
		var set string
		if err := rows.Scan(&c.ID, &c.UserID, &set, &c.ChangedAt); err != nil {
			return nil, mapError(err)
		}
		c.ChangeSet = domain.ChangeSet(set)
		changes = append(changes, c)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return changes, nil
}

// scannable is satisfied by both pgx.Row and pgx.Rows
type scannable interface {
	Scan(dest ...any) error
}

func (r *PersonalDetailsRepository) scanDetails(row scannable) (*domain.PrivatePersonalDetails, error) {
	var d domain.PrivatePersonalDetails

	err := row.Scan(
		&d.UserID,
		&d.DateOfBirth,
		&d.LegalFirstName,
		&d.LegalLastName,
		&d.UpdatedAt,
		&d.Version,
	)
	if err != nil {
		return nil, mapError(err)
	}

	return &d, nil
}

// An empty date of birth clears the column.
func nullableDate(dob string) *string {
	if dob == "" {
		return nil
	}
	return &dob
}

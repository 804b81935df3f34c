package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/du-marcomm/scholarship-sync/internal/model"
)

// ScholarshipRepository is the document store for scholarship records,
// keyed by the unique business code.
type ScholarshipRepository interface {
	// FindByCodeAndHash returns the scholarship matching both the business
	// code and the feed fingerprint, or nil when no such row exists.
	FindByCodeAndHash(ctx context.Context, code, apiHash string) (*model.Scholarship, error)
	// Upsert writes the scholarship, replacing any existing row with the
	// same code. ID, CreatedAt and UpdatedAt are refreshed on the struct.
	Upsert(ctx context.Context, s *model.Scholarship) error
	// ListPublishedNotInHashes returns all published scholarships whose
	// fingerprint is absent from the given set.
	ListPublishedNotInHashes(ctx context.Context, apiHashes []string) ([]*model.Scholarship, error)
	// SetArchived unpublishes a scholarship and moves it to the archived
	// moderation state. Field content is left untouched.
	SetArchived(ctx context.Context, id int64) error
	// ClearImportStamps zeroes the import stamp on every scholarship and
	// returns the number of rows affected.
	ClearImportStamps(ctx context.Context) (int64, error)
	// ClearImportStampByCode zeroes the import stamp on one scholarship.
	ClearImportStampByCode(ctx context.Context, code string) (int64, error)
}

type scholarshipRepository struct {
	pool *pgxpool.Pool
}

func NewScholarshipRepository(pool *pgxpool.Pool) ScholarshipRepository {
	return &scholarshipRepository{pool: pool}
}

const scholarshipColumns = `id, code, title, description, api_hash, last_update, api_update_stamp,
	class_levels, kind, minimum_gpa, minimum_age, race_codes, international, population,
	home_state_ids, school_ids, major_ids, published, moderation_state, created_at, updated_at`

func scanScholarship(row pgx.Row) (*model.Scholarship, error) {
	s := &model.Scholarship{}
	err := row.Scan(
		&s.ID, &s.Code, &s.Title, &s.Description, &s.APIHash, &s.LastUpdate, &s.APIUpdateStamp,
		&s.ClassLevels, &s.Kind, &s.MinimumGPA, &s.MinimumAge, &s.RaceCodes, &s.International, &s.Population,
		&s.HomeStateIDs, &s.SchoolIDs, &s.MajorIDs, &s.Published, &s.ModerationState, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *scholarshipRepository) FindByCodeAndHash(ctx context.Context, code, apiHash string) (*model.Scholarship, error) {
	query := `SELECT ` + scholarshipColumns + ` FROM scholarships WHERE code = $1 AND api_hash = $2`
	s, err := scanScholarship(r.pool.QueryRow(ctx, query, code, apiHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *scholarshipRepository) Upsert(ctx context.Context, s *model.Scholarship) error {
	query := `
		INSERT INTO scholarships (
			code, title, description, api_hash, last_update, api_update_stamp,
			class_levels, kind, minimum_gpa, minimum_age, race_codes, international, population,
			home_state_ids, school_ids, major_ids, published, moderation_state
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (code) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			api_hash = EXCLUDED.api_hash,
			last_update = EXCLUDED.last_update,
			api_update_stamp = EXCLUDED.api_update_stamp,
			class_levels = EXCLUDED.class_levels,
			kind = EXCLUDED.kind,
			minimum_gpa = EXCLUDED.minimum_gpa,
			minimum_age = EXCLUDED.minimum_age,
			race_codes = EXCLUDED.race_codes,
			international = EXCLUDED.international,
			population = EXCLUDED.population,
			home_state_ids = EXCLUDED.home_state_ids,
			school_ids = EXCLUDED.school_ids,
			major_ids = EXCLUDED.major_ids,
			published = EXCLUDED.published,
			moderation_state = EXCLUDED.moderation_state,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return r.pool.QueryRow(ctx, query,
		s.Code, s.Title, s.Description, s.APIHash, s.LastUpdate, s.APIUpdateStamp,
		s.ClassLevels, s.Kind, s.MinimumGPA, s.MinimumAge, s.RaceCodes, s.International, s.Population,
		s.HomeStateIDs, s.SchoolIDs, s.MajorIDs, s.Published, s.ModerationState,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *scholarshipRepository) ListPublishedNotInHashes(ctx context.Context, apiHashes []string) ([]*model.Scholarship, error) {
	query := `SELECT ` + scholarshipColumns + `
		FROM scholarships
		WHERE published AND NOT (api_hash = ANY($1))
		ORDER BY code ASC`
	rows, err := r.pool.Query(ctx, query, apiHashes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scholarships []*model.Scholarship
	for rows.Next() {
		s, err := scanScholarship(rows)
		if err != nil {
			return nil, err
		}
		scholarships = append(scholarships, s)
	}
	return scholarships, rows.Err()
}

func (r *scholarshipRepository) SetArchived(ctx context.Context, id int64) error {
	query := `
		UPDATE scholarships
		SET published = FALSE, moderation_state = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.pool.Exec(ctx, query, model.ModerationArchived, id)
	return err
}

func (r *scholarshipRepository) ClearImportStamps(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE scholarships SET api_update_stamp = 0, updated_at = NOW() WHERE api_update_stamp <> 0`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *scholarshipRepository) ClearImportStampByCode(ctx context.Context, code string) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE scholarships SET api_update_stamp = 0, updated_at = NOW() WHERE code = $1 AND api_update_stamp <> 0`,
		code)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

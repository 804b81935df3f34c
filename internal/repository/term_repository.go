package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/du-marcomm/scholarship-sync/internal/model"
)

// TermRepository stores reference entities (states, schools, majors) and the
// append-only major↔school association set.
type TermRepository interface {
	// Find returns the term matching the full natural key, or nil when
	// no such term exists.
	Find(ctx context.Context, vocabulary, name, bannerCode, majorCode string) (*model.Term, error)
	// Insert attempts to create the term. It returns false without error
	// when a term with the same natural key already exists, which callers
	// use as the conflict-fallback-to-lookup signal.
	Insert(ctx context.Context, t *model.Term) (bool, error)
	// SchoolAssociations lists the school term ids associated with a major.
	SchoolAssociations(ctx context.Context, majorID int64) ([]int64, error)
	// AddSchoolAssociations appends school associations to a major,
	// silently skipping ids already present.
	AddSchoolAssociations(ctx context.Context, majorID int64, schoolIDs []int64) error
}

type termRepository struct {
	pool *pgxpool.Pool
}

func NewTermRepository(pool *pgxpool.Pool) TermRepository {
	return &termRepository{pool: pool}
}

func (r *termRepository) Find(ctx context.Context, vocabulary, name, bannerCode, majorCode string) (*model.Term, error) {
	query := `
		SELECT id, vocabulary, name, banner_code, major_code, created_at, updated_at
		FROM terms
		WHERE vocabulary = $1 AND name = $2 AND banner_code = $3 AND major_code = $4
	`
	t := &model.Term{}
	err := r.pool.QueryRow(ctx, query, vocabulary, name, bannerCode, majorCode).
		Scan(&t.ID, &t.Vocabulary, &t.Name, &t.BannerCode, &t.MajorCode, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *termRepository) Insert(ctx context.Context, t *model.Term) (bool, error) {
	query := `
		INSERT INTO terms (vocabulary, name, banner_code, major_code)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (vocabulary, name, banner_code, major_code) DO NOTHING
		RETURNING id, created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query, t.Vocabulary, t.Name, t.BannerCode, t.MajorCode).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the insert race or the term already existed.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *termRepository) SchoolAssociations(ctx context.Context, majorID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT school_id FROM major_schools WHERE major_id = $1 ORDER BY school_id ASC`, majorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *termRepository) AddSchoolAssociations(ctx context.Context, majorID int64, schoolIDs []int64) error {
	if len(schoolIDs) == 0 {
		return nil
	}
	query := `
		INSERT INTO major_schools (major_id, school_id)
		SELECT $1, unnest($2::bigint[])
		ON CONFLICT (major_id, school_id) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query, majorID, schoolIDs)
	return err
}

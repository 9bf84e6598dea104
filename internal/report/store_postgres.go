package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang/geo/s2"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"patrimonio/internal/sensitivity"
	id "patrimonio/pkg/domain"
	"patrimonio/pkg/platform/sentinel"
)

// PostgresStore persists reports in PostgreSQL. Transitions are single
// UPDATE statements keyed on the current review state, so the database is
// the arbiter when two actors race.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed report store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const reportColumns = `
	id, created_by, latitude, longitude,
	name, region, locality, location_detail, category, typologies,
	culture, period, conservation, risk_type, protection_level, threats,
	private_enclosure, review_state, origin_of_access, accessibility_level,
	sensitivity_code, created_at, published_at, published_by
`

func (s *PostgresStore) Create(ctx context.Context, r *Report) error {
	query := `
		INSERT INTO reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(r.ID), uuid.UUID(r.CreatedBy), r.Latitude, r.Longitude,
		r.Name, r.Region, r.Locality, r.LocationDetail, r.Category, pq.Array(r.Typologies),
		r.Culture, r.Period, r.Conservation, r.RiskType, r.ProtectionLevel, r.Threats,
		r.PrivateEnclosure, string(r.ReviewState), optionalString((*string)(r.OriginOfAccess)),
		optionalString((*string)(r.AccessibilityLevel)), optionalString((*string)(r.SensitivityCode)),
		r.CreatedAt, optionalTime(r.PublishedAt), optionalUUID((*uuid.UUID)(r.PublishedBy)),
	)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, reportID id.ReportID) (*Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	r, err := scanReport(s.db.QueryRowContext(ctx, query, uuid.UUID(reportID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get report: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) UpdateDescriptive(ctx context.Context, reportID id.ReportID, upd Update) (*Report, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1 FOR UPDATE`
	r, err := scanReport(tx.QueryRowContext(ctx, query, uuid.UUID(reportID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock report: %w", err)
	}
	if r.ReviewState != StatePending {
		return nil, sentinel.ErrInvalidState
	}
	upd.apply(r)

	update := `
		UPDATE reports SET
			name = $2, region = $3, locality = $4, location_detail = $5,
			category = $6, typologies = $7, culture = $8, period = $9,
			conservation = $10, risk_type = $11, protection_level = $12,
			threats = $13, private_enclosure = $14
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		uuid.UUID(reportID),
		r.Name, r.Region, r.Locality, r.LocationDetail,
		r.Category, pq.Array(r.Typologies), r.Culture, r.Period,
		r.Conservation, r.RiskType, r.ProtectionLevel,
		r.Threats, r.PrivateEnclosure,
	); err != nil {
		return nil, fmt.Errorf("update report: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) SetAccessConditions(ctx context.Context, reportID id.ReportID, origin sensitivity.Origin, level sensitivity.Level) (*Report, error) {
	query := `
		UPDATE reports
		SET origin_of_access = $2, accessibility_level = $3
		WHERE id = $1 AND review_state = 'in_review'
		RETURNING ` + reportColumns
	r, err := scanReport(s.db.QueryRowContext(ctx, query, uuid.UUID(reportID), string(origin), string(level)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.explainMiss(ctx, reportID)
		}
		return nil, fmt.Errorf("set access conditions: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) AdvanceToReview(ctx context.Context, reportID id.ReportID) (*Report, error) {
	query := `
		UPDATE reports
		SET review_state = 'in_review'
		WHERE id = $1 AND review_state = 'pending'
		RETURNING ` + reportColumns
	r, err := scanReport(s.db.QueryRowContext(ctx, query, uuid.UUID(reportID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.explainMiss(ctx, reportID)
		}
		return nil, fmt.Errorf("advance report to review: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Publish(ctx context.Context, reportID id.ReportID, code sensitivity.Code, publishedBy id.UserID, publishedAt time.Time) (*Report, error) {
	query := `
		UPDATE reports
		SET review_state = 'published', sensitivity_code = $2,
		    published_by = $3, published_at = $4
		WHERE id = $1 AND review_state = 'in_review'
		RETURNING ` + reportColumns
	r, err := scanReport(s.db.QueryRowContext(ctx, query,
		uuid.UUID(reportID), string(code), uuid.UUID(publishedBy), publishedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.explainMiss(ctx, reportID)
		}
		return nil, fmt.Errorf("publish report: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListByAuthor(ctx context.Context, author id.UserID) ([]*Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE created_by = $1 ORDER BY created_at ASC`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(author))
	if err != nil {
		return nil, fmt.Errorf("list reports by author: %w", err)
	}
	return collectReports(rows)
}

func (s *PostgresStore) ListPublishedInViewport(ctx context.Context, viewport s2.Rect) ([]*Report, error) {
	lo, hi := viewport.Lo(), viewport.Hi()
	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE review_state = 'published'
		  AND latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
		ORDER BY created_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query,
		lo.Lat.Degrees(), hi.Lat.Degrees(), lo.Lng.Degrees(), hi.Lng.Degrees())
	if err != nil {
		return nil, fmt.Errorf("list reports in viewport: %w", err)
	}
	return collectReports(rows)
}

// explainMiss distinguishes a missing row from a state-guard failure after a
// compare-and-set matched nothing.
func (s *PostgresStore) explainMiss(ctx context.Context, reportID id.ReportID) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM reports WHERE id = $1)`, uuid.UUID(reportID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check report existence: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*Report, error) {
	var (
		r           Report
		reportUID   uuid.UUID
		authorUID   uuid.UUID
		state       string
		origin      sql.NullString
		level       sql.NullString
		code        sql.NullString
		publishedAt sql.NullTime
		publishedBy uuid.NullUUID
	)
	err := row.Scan(
		&reportUID, &authorUID, &r.Latitude, &r.Longitude,
		&r.Name, &r.Region, &r.Locality, &r.LocationDetail, &r.Category, pq.Array(&r.Typologies),
		&r.Culture, &r.Period, &r.Conservation, &r.RiskType, &r.ProtectionLevel, &r.Threats,
		&r.PrivateEnclosure, &state, &origin, &level,
		&code, &r.CreatedAt, &publishedAt, &publishedBy,
	)
	if err != nil {
		return nil, err
	}
	r.ID = id.ReportID(reportUID)
	r.CreatedBy = id.UserID(authorUID)
	r.ReviewState = ReviewState(state)
	if origin.Valid {
		o := sensitivity.Origin(origin.String)
		r.OriginOfAccess = &o
	}
	if level.Valid {
		l := sensitivity.Level(level.String)
		r.AccessibilityLevel = &l
	}
	if code.Valid {
		c := sensitivity.Code(code.String)
		r.SensitivityCode = &c
	}
	if publishedAt.Valid {
		at := publishedAt.Time
		r.PublishedAt = &at
	}
	if publishedBy.Valid {
		by := id.UserID(publishedBy.UUID)
		r.PublishedBy = &by
	}
	return &r, nil
}

func collectReports(rows *sql.Rows) ([]*Report, error) {
	defer rows.Close()
	var out []*Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}

func optionalString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func optionalTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func optionalUUID(u *uuid.UUID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *u, Valid: true}
}

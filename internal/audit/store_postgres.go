package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "patrimonio/pkg/domain"
)

// PostgresStore persists audit events in PostgreSQL.
// This store is pure I/O - event construction belongs to the publisher.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (occurred_at, report_id, actor_id, actor_role, action, detail)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.Timestamp,
		uuid.UUID(event.ReportID),
		uuid.UUID(event.ActorID),
		string(event.ActorRole),
		string(event.Action),
		event.Detail,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByReport(ctx context.Context, reportID id.ReportID) ([]Event, error) {
	query := `
		SELECT occurred_at, report_id, actor_id, actor_role, action, detail
		FROM audit_events
		WHERE report_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(reportID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event     Event
			reportUID uuid.UUID
			actorUID  uuid.UUID
			role      string
			action    string
		)
		if err := rows.Scan(&event.Timestamp, &reportUID, &actorUID, &role, &action, &event.Detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.ReportID = id.ReportID(reportUID)
		event.ActorID = id.UserID(actorUID)
		event.ActorRole = id.Role(role)
		event.Action = Action(action)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

package sql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/product-listings/internal/model"
	"github.com/iyhunko/product-listings/internal/repository"
)

const defaultEventBatch = 100

// EventRepository implements repository.EventRepository on Postgres.
type EventRepository struct {
	db  *sql.DB
	txn *sql.Tx
}

// NewEventRepository creates a new EventRepository instance.
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// getExecutor returns the active executor (transaction if exists, otherwise db)
func (r *EventRepository) getExecutor() dbExecutor {
	if r.txn != nil {
		return r.txn
	}
	return r.db
}

// Create inserts a new event into the database.
func (r *EventRepository) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	event.InitMeta()

	query := `INSERT INTO events (id, event_type, event_data, status, created_at, processed_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, event.ID, event.EventType, string(event.EventData), event.Status, event.CreatedAt, event.ProcessedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	return event, nil
}

// ListPending returns the oldest pending events, at most limit of them.
func (r *EventRepository) ListPending(ctx context.Context, limit int) ([]*model.Event, error) {
	query := `SELECT id, event_type, event_data, status, created_at, processed_at
	          FROM events
	          WHERE status = $1
	          ORDER BY created_at ASC
	          LIMIT $2`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare select statement: %w", err)
	}
	defer stmt.Close()

	if limit <= 0 {
		limit = defaultEventBatch
	}

	rows, err := stmt.QueryContext(ctx, model.EventStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		var event model.Event
		var data []byte
		var processedAt sql.NullTime
		err := rows.Scan(&event.ID, &event.EventType, &data, &event.Status, &event.CreatedAt, &processedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event.EventData = json.RawMessage(data)
		if processedAt.Valid {
			event.ProcessedAt = &processedAt.Time
		}
		events = append(events, &event)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return events, nil
}

// UpdateStatus updates the status and processed_at time of an event
func (r *EventRepository) UpdateStatus(ctx context.Context, eventID uuid.UUID, status model.EventStatus) error {
	query := `UPDATE events SET status = $1, processed_at = $2 WHERE id = $3`

	stmt, err := r.getExecutor().PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare update statement: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, status, time.Now().UTC(), eventID)
	if err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("event %s: %w", eventID, repository.ErrNotFound)
	}

	return nil
}

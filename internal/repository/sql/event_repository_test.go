package sql_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/iyhunko/product-listings/internal/model"
	"github.com/iyhunko/product-listings/internal/repository"
	"github.com/iyhunko/product-listings/internal/repository/sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var eventColumns = []string{"id", "event_type", "event_data", "status", "created_at", "processed_at"}

func TestEventRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := sql.NewEventRepository(db)
	ctx := context.Background()

	t.Run("successful creation", func(t *testing.T) {
		eventData := map[string]interface{}{
			"action":     "created",
			"product_id": "Ab3dEf6hIj9kLm2oPq5sTu8wXy1zA4",
			"title":      "Bike",
		}
		eventDataJSON, err := json.Marshal(eventData)
		require.NoError(t, err)

		event := &model.Event{
			EventType: model.EventTypeProductCreated,
			EventData: eventDataJSON,
			Status:    model.EventStatusPending,
		}

		mock.ExpectPrepare("INSERT INTO events").
			ExpectExec().
			WithArgs(sqlmock.AnyArg(), event.EventType, string(eventDataJSON), "pending", sqlmock.AnyArg(), nil).
			WillReturnResult(sqlmock.NewResult(1, 1))

		createdEvent, err := repo.Create(ctx, event)

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, createdEvent.ID)
		assert.Equal(t, model.EventTypeProductCreated, createdEvent.EventType)
		assert.Equal(t, model.EventStatusPending, createdEvent.Status)
		assert.False(t, createdEvent.CreatedAt.IsZero())

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_ListPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := sql.NewEventRepository(db)
	ctx := context.Background()

	t.Run("list pending events", func(t *testing.T) {
		eventID1 := uuid.New()
		eventID2 := uuid.New()
		eventData := []byte(`{"action":"created"}`)
		createdAt1 := time.Now()
		createdAt2 := time.Now().Add(1 * time.Minute)

		rows := sqlmock.NewRows(eventColumns).
			AddRow(eventID1.String(), "product.created", eventData, "pending", createdAt1, nil).
			AddRow(eventID2.String(), "product.deleted", eventData, "pending", createdAt2, nil)

		mock.ExpectPrepare("SELECT (.+) FROM events WHERE status").
			ExpectQuery().
			WithArgs("pending", 10).
			WillReturnRows(rows)

		events, err := repo.ListPending(ctx, 10)

		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, eventID1, events[0].ID)
		assert.Equal(t, "product.created", events[0].EventType)
		assert.Equal(t, eventID2, events[1].ID)
		assert.Equal(t, "product.deleted", events[1].EventType)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-positive limit falls back to the default batch", func(t *testing.T) {
		mock.ExpectPrepare("SELECT (.+) FROM events WHERE status").
			ExpectQuery().
			WithArgs("pending", 100).
			WillReturnRows(sqlmock.NewRows(eventColumns))

		events, err := repo.ListPending(ctx, 0)

		require.NoError(t, err)
		assert.Empty(t, events)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestEventRepository_UpdateStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	eventRepo := sql.NewEventRepository(db)
	ctx := context.Background()

	t.Run("successful status update", func(t *testing.T) {
		eventID := uuid.New()

		mock.ExpectPrepare("UPDATE events SET status").
			ExpectExec().
			WithArgs("processed", sqlmock.AnyArg(), eventID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := eventRepo.UpdateStatus(ctx, eventID, model.EventStatusProcessed)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown event", func(t *testing.T) {
		eventID := uuid.New()

		mock.ExpectPrepare("UPDATE events SET status").
			ExpectExec().
			WithArgs("failed", sqlmock.AnyArg(), eventID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := eventRepo.UpdateStatus(ctx, eventID, model.EventStatusFailed)

		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

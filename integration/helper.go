package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/iyhunko/product-listings/internal/model"
	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
)

const (
	postgresImage     = "postgres"
	postgresTag       = "16"
	listingsDB        = "listings"
	listingsUser      = "listings"
	listingsPassword  = "listings"
	containerLifetime = 120 // seconds
	migrationsDir     = "../migrations"
)

// TestDB is a disposable Postgres holding the listing schema.
type TestDB struct {
	DB       *sql.DB
	Pool     *dockertest.Pool
	Resource *dockertest.Resource
}

// SetupTestDB starts a Postgres container and migrates the products and events tables into it.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "docker is not reachable")
	pool.MaxWait = containerLifetime * time.Second

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: postgresImage,
		Tag:        postgresTag,
		Env: []string{
			"POSTGRES_DB=" + listingsDB,
			"POSTGRES_USER=" + listingsUser,
			"POSTGRES_PASSWORD=" + listingsPassword,
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "starting postgres container")
	require.NoError(t, resource.Expire(containerLifetime))

	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable",
		listingsUser, listingsPassword, resource.GetHostPort("5432/tcp"), listingsDB)
	slog.Info("Waiting for listings database", slog.String("dsn", dsn))

	var db *sql.DB
	err = pool.Retry(func() error {
		var openErr error
		if db, openErr = sql.Open("postgres", dsn); openErr != nil {
			return openErr
		}
		return db.Ping()
	})
	require.NoError(t, err, "postgres never became ready")

	migrateSchema(t, db)

	return &TestDB{DB: db, Pool: pool, Resource: resource}
}

func migrateSchema(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := os.Stat(migrationsDir)
	require.NoError(t, err, "migrations directory not found")

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	require.NoError(t, err)

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir, "postgres", driver)
	require.NoError(t, err)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		require.NoError(t, err, "applying migrations")
	}
}

// Cleanup closes the pool and removes the container.
func (tdb *TestDB) Cleanup(t *testing.T) {
	t.Helper()

	if tdb.DB != nil {
		if err := tdb.DB.Close(); err != nil {
			t.Errorf("closing database: %s", err)
		}
	}
	if tdb.Pool != nil && tdb.Resource != nil {
		if err := tdb.Pool.Purge(tdb.Resource); err != nil {
			t.Errorf("purging container: %s", err)
		}
	}
}

// TruncateTables empties the listing and outbox tables.
func (tdb *TestDB) TruncateTables(t *testing.T) {
	t.Helper()

	_, err := tdb.DB.ExecContext(context.Background(), "TRUNCATE TABLE events, products")
	require.NoError(t, err)
}

// Event reads one outbox row straight from the events table.
func (tdb *TestDB) Event(t *testing.T, id uuid.UUID) (*model.Event, error) {
	t.Helper()

	var (
		event       model.Event
		data        []byte
		processedAt sql.NullTime
	)
	err := tdb.DB.QueryRowContext(context.Background(),
		"SELECT id, event_type, event_data, status, created_at, processed_at FROM events WHERE id = $1", id).
		Scan(&event.ID, &event.EventType, &data, &event.Status, &event.CreatedAt, &processedAt)
	if err != nil {
		return nil, err
	}
	event.EventData = json.RawMessage(data)
	if processedAt.Valid {
		event.ProcessedAt = &processedAt.Time
	}
	return &event, nil
}

// EventIDByType returns the id of the single outbox row with the given event type.
func (tdb *TestDB) EventIDByType(t *testing.T, eventType string) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := tdb.DB.QueryRowContext(context.Background(),
		"SELECT id FROM events WHERE event_type = $1", eventType).Scan(&id)
	require.NoError(t, err)
	return id
}

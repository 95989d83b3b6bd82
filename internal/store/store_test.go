package store_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/vitiapi/internal/db"
	"github.com/persistorai/vitiapi/internal/db/migrations"
	"github.com/persistorai/vitiapi/internal/dbpool"
	"github.com/persistorai/vitiapi/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var (
	sharedEnv *testEnv
	envOnce   sync.Once
	envErr    error
)

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	envOnce.Do(func() {
		ctx := context.Background()

		pool, err := dbpool.NewPool(ctx, dbURL)
		if err != nil {
			envErr = err

			return
		}

		log := logrus.New()
		log.SetLevel(logrus.ErrorLevel)

		if err := db.RunMigrations(ctx, pool, log, migrations.FS); err != nil {
			envErr = err

			return
		}

		sharedEnv = &testEnv{pool: pool, log: log}
	})

	if envErr != nil {
		t.Fatalf("setting up test DB: %v", envErr)
	}

	return sharedEnv
}

// setupStores returns stores bound to the shared pool.
func setupStores(t *testing.T) *store.Stores {
	t.Helper()

	env := getTestEnv(t)

	return store.NewStores(store.Base{DB: env.pool, Log: env.log})
}

// uniqueName returns a label that no other test run will produce.
func uniqueName(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// cleanupRows deletes ids from table once the test finishes.
func cleanupRows(t *testing.T, table string, ids ...*int64) {
	t.Helper()

	env := sharedEnv
	t.Cleanup(func() {
		for _, id := range ids {
			env.pool.Exec(context.Background(), "DELETE FROM "+table+" WHERE id = $1", *id) //nolint:errcheck // best-effort cleanup
		}
	})
}

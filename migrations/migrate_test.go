package migrations_test

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirinyoku/livechain-go/internal/testutil"
	"github.com/kirinyoku/livechain-go/migrations"
)

func TestNamesAreSorted(t *testing.T) {
	names, err := migrations.Names()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_init.sql", names[0])
	assert.IsNonDecreasing(t, names)
}

func TestApplyRecordsMigrations(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `DROP TABLE IF EXISTS schema_migrations`)
	require.NoError(t, err)

	require.NoError(t, migrations.Apply(ctx, pool))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&count))

	names, err := migrations.Names()
	require.NoError(t, err)
	assert.Equal(t, len(names), count)

	require.NoError(t, migrations.Apply(ctx, pool))

	var again int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&again))
	assert.Equal(t, count, again)
}

func TestApplyFSRollsBackUnrecordedMigration(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `DROP TABLE IF EXISTS migration_tx_check`)
	require.NoError(t, err)
	require.NoError(t, migrations.Apply(ctx, pool))

	// The file records itself, so recording it again fails after its body ran.
	fsys := fstest.MapFS{
		"900_tx_check.sql": {Data: []byte(`
CREATE TABLE migration_tx_check (id INT);
INSERT INTO schema_migrations (name) VALUES ('900_tx_check.sql');`)},
	}

	err = migrations.ApplyFS(ctx, pool, fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record migration 900_tx_check.sql")

	var table *string
	require.NoError(t, pool.QueryRow(ctx, `SELECT to_regclass('migration_tx_check')::text`).Scan(&table))
	assert.Nil(t, table)

	var recorded bool
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = '900_tx_check.sql')`).Scan(&recorded))
	assert.False(t, recorded)
}

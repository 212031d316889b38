package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/momserver/internal/game/unit"
	"github.com/cory-johannsen/momserver/internal/storage/postgres"
	"github.com/cory-johannsen/momserver/internal/testutil"
)

func TestMigrate_RejectsBadArguments(t *testing.T) {
	_, err := postgres.Migrate("postgres://x@localhost/x", "../../../migrations", "sideways", 0)
	assert.Error(t, err)
	_, err = postgres.Migrate("postgres://x@localhost/x", "../../../migrations", "up", -1)
	assert.Error(t, err)
}

func TestMigrate_UpDown(t *testing.T) {
	pc := testutil.NewPostgresContainer(t)
	dir := "../../../migrations"

	res, err := postgres.Migrate(pc.DSN(), dir, "up", 0)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, uint(1), res.Version)
	assert.False(t, res.Dirty)

	res, err = postgres.Migrate(pc.DSN(), dir, "up", 0)
	require.NoError(t, err)
	assert.False(t, res.Changed)

	repo := postgres.NewUnitRepository(pc.RawPool)
	require.NoError(t, repo.Create(context.Background(), &unit.Unit{
		ID: "u", OwnerPlayerID: "p", LifeformCategoryID: "normal", FigureCount: 1,
	}))

	res, err = postgres.Migrate(pc.DSN(), dir, "down", 0)
	require.NoError(t, err)
	assert.True(t, res.Changed)
}

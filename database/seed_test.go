package database_test

import (
	"testing"

	"github.com/sahilchouksey/educa-api/database"
	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/utils/auth"
	"github.com/sahilchouksey/educa-api/utils/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSeedsIsIdempotent(t *testing.T) {
	auth.Cost = 4
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("ADMIN_PASSWORD", "change-me-now")
	db := testutil.NewTestDB(t)

	require.NoError(t, database.RunSeeds(db))
	require.NoError(t, database.RunSeeds(db))

	var subjects, admins int64
	require.NoError(t, db.Model(&model.Subject{}).Count(&subjects).Error)
	require.NoError(t, db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&admins).Error)
	assert.Equal(t, int64(len(database.DefaultSubjects)), subjects)
	assert.Equal(t, int64(1), admins)
}

func TestSeedSkipsAdminWithoutCredentials(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("ADMIN_PASSWORD", "")
	db := testutil.NewTestDB(t)

	require.NoError(t, database.RunSeeds(db))

	var users int64
	require.NoError(t, db.Model(&model.User{}).Count(&users).Error)
	assert.Zero(t, users)
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/utils"
	"github.com/sahilchouksey/educa-api/utils/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func moduleOrder(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var module model.Module
	require.NoError(t, db.First(&module, id).Error)
	return module.Order
}

func contentOrder(t *testing.T, db *gorm.DB, id uint) int {
	t.Helper()
	var content model.Content
	require.NoError(t, db.First(&content, id).Error)
	return content.Order
}

func idKey(id uint) string { return strconv.FormatUint(uint64(id), 10) }

// batch encodes each value the way it would arrive in a request body
func batch(t *testing.T, pairs map[string]interface{}) OrderBatch {
	t.Helper()
	out := OrderBatch{}
	for key, value := range pairs {
		raw, err := json.Marshal(value)
		require.NoError(t, err)
		out[key] = raw
	}
	return out
}

func TestReorderModulesAppliesOwnedEntries(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", model.RoleInstructor)
	subject := testutil.CreateSubject(t, db, "Music", "music")
	course := testutil.CreateCourse(t, db, owner, subject, "harmony")
	first := testutil.CreateModule(t, db, course, "Scales", 0)
	second := testutil.CreateModule(t, db, course, "Chords", 1)

	svc := NewOrderingService(db, utils.NewLoggerTo(&bytes.Buffer{}))
	result := svc.ReorderModules(context.Background(), owner.ID, batch(t, map[string]interface{}{
		idKey(first.ID):  1,
		idKey(second.ID): 0,
	}))

	assert.Equal(t, ReorderResult{Applied: 2}, result)
	assert.Equal(t, 1, moduleOrder(t, db, first.ID))
	assert.Equal(t, 0, moduleOrder(t, db, second.ID))
}

func TestReorderModulesSkipsForeignAndMalformedEntries(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", model.RoleInstructor)
	other := testutil.CreateUser(t, db, "other@example.com", model.RoleInstructor)
	subject := testutil.CreateSubject(t, db, "Music", "music")
	mine := testutil.CreateModule(t, db, testutil.CreateCourse(t, db, owner, subject, "harmony"), "Scales", 0)
	theirs := testutil.CreateModule(t, db, testutil.CreateCourse(t, db, other, subject, "rhythm"), "Beats", 0)

	var audit bytes.Buffer
	svc := NewOrderingService(db, utils.NewLoggerTo(&audit))
	result := svc.ReorderModules(context.Background(), owner.ID, batch(t, map[string]interface{}{
		idKey(mine.ID):   3,
		idKey(theirs.ID): 7,
		"abc":            1,
		"99999":          2,
	}))

	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 3, result.Skipped)
	assert.Equal(t, 3, moduleOrder(t, db, mine.ID))
	assert.Equal(t, 0, moduleOrder(t, db, theirs.ID))
	assert.Contains(t, audit.String(), "skipped 3")
}

func TestReorderContentsIgnoresNonOwner(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", model.RoleInstructor)
	intruder := testutil.CreateUser(t, db, "intruder@example.com", model.RoleInstructor)
	subject := testutil.CreateSubject(t, db, "Physics", "physics")
	module := testutil.CreateModule(t, db, testutil.CreateCourse(t, db, owner, subject, "optics"), "Lenses", 0)
	a := testutil.CreateTextContent(t, db, owner.ID, module, "a", 0)
	b := testutil.CreateTextContent(t, db, owner.ID, module, "b", 1)

	svc := NewOrderingService(db, utils.NewLoggerTo(&bytes.Buffer{}))
	result := svc.ReorderContents(context.Background(), intruder.ID, batch(t, map[string]interface{}{
		idKey(a.ID): 1,
		idKey(b.ID): 0,
	}))
	assert.Equal(t, ReorderResult{Skipped: 2}, result)
	assert.Equal(t, 0, contentOrder(t, db, a.ID))
	assert.Equal(t, 1, contentOrder(t, db, b.ID))

	result = svc.ReorderContents(context.Background(), owner.ID, batch(t, map[string]interface{}{
		idKey(a.ID): 1,
		idKey(b.ID): 0,
	}))
	assert.Equal(t, ReorderResult{Applied: 2}, result)
	assert.Equal(t, 1, contentOrder(t, db, a.ID))
	assert.Equal(t, 0, contentOrder(t, db, b.ID))
}

func TestReorderSkipsSoftDeletedCourse(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", model.RoleInstructor)
	subject := testutil.CreateSubject(t, db, "Music", "music")
	course := testutil.CreateCourse(t, db, owner, subject, "harmony")
	module := testutil.CreateModule(t, db, course, "Scales", 0)
	require.NoError(t, db.Delete(course).Error)

	svc := NewOrderingService(db, utils.NewLoggerTo(&bytes.Buffer{}))
	result := svc.ReorderModules(context.Background(), owner.ID, batch(t, map[string]interface{}{idKey(module.ID): 4}))

	assert.Equal(t, ReorderResult{Skipped: 1}, result)
	assert.Equal(t, 0, moduleOrder(t, db, module.ID))
}

func TestNextOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", model.RoleInstructor)
	subject := testutil.CreateSubject(t, db, "Music", "music")
	course := testutil.CreateCourse(t, db, owner, subject, "harmony")
	svc := NewOrderingService(db, utils.NewLoggerTo(&bytes.Buffer{}))
	ctx := context.Background()

	next, err := svc.NextModuleOrder(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	testutil.CreateModule(t, db, course, "Scales", 0)
	module := testutil.CreateModule(t, db, course, "Chords", 4)

	next, err = svc.NextModuleOrder(ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, next)

	next, err = svc.NextContentOrder(ctx, module.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	testutil.CreateTextContent(t, db, owner.ID, module, "intro", 2)
	next, err = svc.NextContentOrder(ctx, module.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, next)
}

func TestReorderCoercesOrderValues(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", model.RoleInstructor)
	subject := testutil.CreateSubject(t, db, "Music", "music")
	course := testutil.CreateCourse(t, db, owner, subject, "harmony")
	fromString := testutil.CreateModule(t, db, course, "Scales", 0)
	fromFloat := testutil.CreateModule(t, db, course, "Chords", 1)
	garbage := testutil.CreateModule(t, db, course, "Modes", 2)
	negative := testutil.CreateModule(t, db, course, "Keys", 3)
	empty := testutil.CreateModule(t, db, course, "Rests", 4)

	svc := NewOrderingService(db, utils.NewLoggerTo(&bytes.Buffer{}))
	result := svc.ReorderModules(context.Background(), owner.ID, batch(t, map[string]interface{}{
		idKey(fromString.ID): "7",
		idKey(fromFloat.ID):  8.0,
		idKey(garbage.ID):    "first",
		idKey(negative.ID):   -1,
		idKey(empty.ID):      nil,
	}))

	assert.Equal(t, ReorderResult{Applied: 2, Skipped: 3}, result)
	assert.Equal(t, 7, moduleOrder(t, db, fromString.ID))
	assert.Equal(t, 8, moduleOrder(t, db, fromFloat.ID))
	assert.Equal(t, 2, moduleOrder(t, db, garbage.ID))
	assert.Equal(t, 3, moduleOrder(t, db, negative.ID))
	assert.Equal(t, 4, moduleOrder(t, db, empty.ID))
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{`3`, 3, true},
		{`"3"`, 3, true},
		{`2.9`, 2, true},
		{`"x"`, 0, false},
		{`true`, 0, false},
		{`null`, 0, false},
		{`-4`, 0, false},
		{`{"a":1}`, 0, false},
	}
	for _, tt := range tests {
		got, ok := parseOrder(json.RawMessage(tt.raw))
		assert.Equal(t, tt.ok, ok, tt.raw)
		if tt.ok {
			assert.Equal(t, tt.want, got, tt.raw)
		}
	}
}

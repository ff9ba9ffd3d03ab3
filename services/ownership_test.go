package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/educa-api/model"
	"github.com/sahilchouksey/educa-api/utils/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnershipGateForeignLooksMissing(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", model.RoleInstructor)
	other := testutil.CreateUser(t, db, "other@example.com", model.RoleInstructor)
	subject := testutil.CreateSubject(t, db, "Physics", "physics")
	course := testutil.CreateCourse(t, db, owner, subject, "optics")
	module := testutil.CreateModule(t, db, course, "Lenses", 0)
	content := testutil.CreateTextContent(t, db, owner.ID, module, "Refraction", 0)

	gate := NewOwnershipGate(db)
	ctx := context.Background()

	got, err := gate.OwnedContent(ctx, owner.ID, content.ID)
	require.NoError(t, err)
	assert.Equal(t, content.ItemID, got.ItemID)

	_, err = gate.OwnedCourse(ctx, other.ID, course.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = gate.OwnedCourse(ctx, owner.ID, course.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = gate.OwnedModule(ctx, other.ID, module.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = gate.OwnedModule(ctx, owner.ID, module.ID+100)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = gate.OwnedContent(ctx, other.ID, content.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = gate.OwnedItem(ctx, other.ID, model.ContentKindText, content.ItemID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = gate.OwnedItem(ctx, owner.ID, model.ContentKind("audio"), content.ItemID)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestOwnershipGateHidesSoftDeletedCourse(t *testing.T) {
	db := testutil.NewTestDB(t)
	owner := testutil.CreateUser(t, db, "owner@example.com", model.RoleInstructor)
	subject := testutil.CreateSubject(t, db, "Physics", "physics")
	course := testutil.CreateCourse(t, db, owner, subject, "optics")
	module := testutil.CreateModule(t, db, course, "Lenses", 0)
	require.NoError(t, db.Delete(course).Error)

	gate := NewOwnershipGate(db)
	_, err := gate.OwnedCourse(context.Background(), owner.ID, course.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = gate.OwnedModule(context.Background(), owner.ID, module.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStampOwner(t *testing.T) {
	item := model.NewItem(model.ContentKindVideo)
	StampOwner(item, 42)
	assert.Equal(t, uint(42), item.GetOwnerID())
}

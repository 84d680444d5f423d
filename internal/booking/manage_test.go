package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-booking/internal/model"
)

func editFrom(a *model.Appointment) EditRequest {
	return EditRequest{
		Name:      a.Name,
		Email:     a.Email,
		Telephone: a.Telephone,
		Treatment: a.Treatment,
		Date:      a.Date,
		Time:      a.Time,
	}
}

func TestEditPreservesIdentity(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	req := validRequest()
	req.BodyPart = "pernas"
	a, err := svc.Book(ctx, req)
	require.NoError(t, err)
	before, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)

	edit := editFrom(before)
	edit.Name = "Ana Maria"
	require.NoError(t, svc.Edit(ctx, a.ID, edit))

	after, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "Ana Maria", after.Name)
	assert.Equal(t, before.CreatedAt, after.CreatedAt)
	assert.Equal(t, before.Date, after.Date)
	assert.Equal(t, before.Time, after.Time)
	assert.Equal(t, "pernas", after.BodyPart)
}

func TestEditOntoOccupiedSlot(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	first, err := svc.Book(ctx, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Time = "15:00"
	second, err := svc.Book(ctx, req)
	require.NoError(t, err)

	edit := editFrom(second)
	edit.Time = first.Time
	err = svc.Edit(ctx, second.ID, edit)

	var st *SlotTakenError
	require.ErrorAs(t, err, &st)
	assert.Equal(t, "the slot at 14:00 on 10/06/2025 is already taken", err.Error())

	got, err := svc.Get(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, "15:00", got.Time)
}

func TestEditErrors(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	a, err := svc.Book(ctx, validRequest())
	require.NoError(t, err)

	err = svc.Edit(ctx, a.ID+100, editFrom(a))
	assert.ErrorIs(t, err, model.ErrNotFound)

	bad := editFrom(a)
	bad.Date = "2025-6-1"
	err = svc.Edit(ctx, a.ID, bad)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Messages, "field data must be a date in format YYYY-MM-DD")
}

func TestGetNotFound(t *testing.T) {
	svc := newTestService(newFakeRepo())
	_, err := svc.Get(context.Background(), 42)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListOrder(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	for _, slot := range [][2]string{
		{"2025-06-10", "15:00"},
		{"2025-06-11", "09:00"},
		{"2025-06-10", "08:00"},
	} {
		req := validRequest()
		req.Date, req.Time = slot[0], slot[1]
		_, err := svc.Book(ctx, req)
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "2025-06-11", list[0].Date)
	assert.Equal(t, "08:00", list[1].Time)
	assert.Equal(t, "15:00", list[2].Time)
}

func TestDeleteIdempotent(t *testing.T) {
	svc := newTestService(newFakeRepo())
	ctx := context.Background()

	a, err := svc.Book(ctx, validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, a.ID))
	require.NoError(t, svc.Delete(ctx, a.ID))
	_, err = svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

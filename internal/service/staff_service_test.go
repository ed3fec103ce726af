package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/booking_desk/internal/apperr"
	"github.com/Freeeeeet/booking_desk/internal/model"
)

func TestStaffLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.staff.Create(ctx, StaffInput{Name: " Riley ", State: "NSW"})
	require.NoError(t, err)
	assert.Equal(t, "Riley", created.Name)
	assert.Equal(t, model.RoleStaff, created.Role)
	assert.True(t, strings.HasPrefix(created.Mobile, "staff-"))

	exists, err := f.staff.StaffExists(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	name := "Riley Q"
	updated, err := f.staff.Update(ctx, created.ID, StaffUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Riley Q", updated.Name)
	assert.Equal(t, "NSW", updated.State)

	list, err := f.staff.List(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(list))
	for _, s := range list {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Alex", "Riley Q", "Sam"}, names)

	require.NoError(t, f.staff.Delete(ctx, created.ID))
	exists, err = f.staff.StaffExists(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStaffValidationAndLookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.staff.Create(ctx, StaffInput{Name: "NoState"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	empty := ""
	_, err = f.staff.Update(ctx, "s1", StaffUpdate{Name: &empty})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.staff.Update(ctx, "c1", StaffUpdate{})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound), "clients are not staff")

	err = f.staff.Delete(ctx, "ghost")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	admins, err := f.staff.AdminIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, admins)
}

func TestUserRegisterAndLinkTelegram(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.Register(ctx, RegisterInput{Name: "Morgan"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleClient, user.Role)
	assert.NotEmpty(t, user.Mobile)

	again, err := f.users.Register(ctx, RegisterInput{ID: user.ID, Name: "Morgan B"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "Morgan B", again.Name)

	_, err = f.users.Register(ctx, RegisterInput{Name: "x", Role: "ROOT"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.users.SignUp(ctx, RegisterInput{Name: "x", Role: model.RoleAdmin})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	_, err = f.users.SignUp(ctx, RegisterInput{ID: "admin", Name: "x"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	fresh, err := f.users.SignUp(ctx, RegisterInput{Name: "Quinn", Role: model.RoleClient})
	require.NoError(t, err)
	assert.Equal(t, model.RoleClient, fresh.Role)

	linked, err := f.users.LinkTelegram(ctx, user.ID, 777)
	require.NoError(t, err)
	require.NotNil(t, linked.TelegramChatID)

	stored, err := f.users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(777), *stored.TelegramChatID)

	_, err = f.users.LinkTelegram(ctx, "ghost", 1)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/booking_desk/internal/apperr"
	"github.com/Freeeeeet/booking_desk/internal/model"
	"github.com/Freeeeeet/booking_desk/internal/repository/memory"
)

func TestNotificationInbox(t *testing.T) {
	store := memory.NewStore()
	svc := NewNotificationService(store.Notifications(), zap.NewNop())
	ctx := context.Background()

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, store.Notifications().Create(ctx, &model.Notification{UserID: "u1", Message: msg, Kind: model.NotificationInfo}))
	}
	require.NoError(t, store.Notifications().Create(ctx, &model.Notification{UserID: "u2", Message: "other"}))

	count, err := svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	list, err := svc.List(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, list, 3)

	_, err = svc.MarkRead(ctx, "u2", list[0].ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound), "cannot read someone else's entry")

	read, err := svc.MarkRead(ctx, "u1", list[0].ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	unread, err := svc.List(ctx, "u1", true)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	changed, err := svc.MarkAllRead(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	count, err = svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)

	empty, err := svc.List(ctx, "nobody", false)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

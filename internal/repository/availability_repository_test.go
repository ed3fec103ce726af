package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/booking_desk/internal/model"
)

func TestAvailabilityRepositoryUpsert(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAvailabilityRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO staff_availability").
		WithArgs("staff-1", "2026-05-04", []string{"11:00", "12:00"}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "updated_at"}).AddRow("av-1", now))

	av := &model.Availability{
		StaffID: "staff-1",
		Date:    time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC),
		Windows: []string{"11:00", "12:00"},
	}
	require.NoError(t, repo.Upsert(context.Background(), av))
	assert.Equal(t, "av-1", av.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityRepositoryGetMissing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAvailabilityRepository(mock)

	mock.ExpectQuery("FROM staff_availability").
		WithArgs("staff-1", "2026-05-04").
		WillReturnRows(pgxmock.NewRows([]string{"id", "staff_id", "avail_date", "windows", "updated_at"}))

	av, err := repo.Get(context.Background(), "staff-1", time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, av)
}

func TestAvailabilityRepositoryListError(t *testing.T) {
	mock := newMockPool(t)
	repo := NewAvailabilityRepository(mock)

	mock.ExpectQuery("FROM staff_availability").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.List(context.Background(), model.AvailabilityFilter{StaffID: "staff-1"})
	assert.ErrorContains(t, err, "list availability")
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/booking_desk/internal/apperr"
	"github.com/Freeeeeet/booking_desk/internal/model"
)

func TestAvailabilitySet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		windows []string
		want    []string
	}{
		{"nil means full day", nil, DefaultWindows},
		{"empty closes the day", []string{}, []string{}},
		{"sorted and deduplicated", []string{"15:00", "20:00", "15:00", "11:00"}, []string{"11:00", "15:00", "20:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			av, err := f.availability.Set(ctx, "s1", day, tt.windows)
			require.NoError(t, err)
			assert.Equal(t, tt.want, av.Windows)
			require.NotNil(t, av.Staff)
			assert.Equal(t, "Sam", av.Staff.Name)
		})
	}
}

func TestAvailabilitySetRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.availability.Set(ctx, "c1", day, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound), "clients cannot publish availability")

	for _, w := range []string{"11:30", "08:00", "10:00", "21:00", "25:00"} {
		_, err = f.availability.Set(ctx, "s1", day, []string{"12:00", w})
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), w)
	}

	_, err = f.availability.Set(ctx, "", day, nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestAvailabilityGetFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := f.availability.Set(ctx, "s1", day.Add(time.Duration(i)*24*time.Hour), nil)
		require.NoError(t, err)
	}
	f.open(t, "s2", "11:00")

	all, err := f.availability.Get(ctx, model.AvailabilityFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	from, to := day.Add(24*time.Hour), day.Add(48*time.Hour)
	ranged, err := f.availability.Get(ctx, model.AvailabilityFilter{StaffID: "s1", From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, ranged, 2)
	assert.True(t, ranged[0].Date.Before(ranged[1].Date))
}

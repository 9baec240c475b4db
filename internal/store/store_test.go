package store

import (
	"context"
	"errors"
	"testing"
	"workdiary/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v3"
)

var drivers = []string{"sqlite3", "sqlite"}

func newTestStore(t *testing.T, driver string) *SQLiteStore {
	t.Helper()
	db, err := Open(driver, ":memory:")
	require.NoError(t, err)
	s, err := NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func entry(user, ts string) *models.WorkDiaryEntry {
	return &models.WorkDiaryEntry{
		ProjectID:           "p1",
		UserID:              user,
		TaskID:              "t1",
		ScreenshotTimeStamp: ts,
		CalcTimeStamp:       ts,
		KeyboardJSON:        `{"clicks":3}`,
		MouseJSON:           `{"clicks":5}`,
		ActiveJSON:          `{"apps":["editor"]}`,
		ActiveFlag:          null.BoolFrom(true),
		ActiveMins:          7,
		ActiveMemo:          "memo",
		ImageURL:            null.StringFrom("ProjectID_p1/TaskID_t1/2024-03-01/a.png"),
	}
}

func TestInsertAndList(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			s := newTestStore(t, driver)
			ctx := context.Background()

			e := entry("u1", "2024-03-01 10:00:00")
			id, err := s.Insert(ctx, e)
			require.NoError(t, err)
			assert.Equal(t, int64(1), id)
			assert.Equal(t, id, e.ID)
			assert.False(t, e.CreatedAt.IsZero())

			got, err := s.List(ctx, models.EntryFilter{})
			require.NoError(t, err)
			require.Len(t, got, 1)

			row := got[0]
			assert.Equal(t, "u1", row.UserID)
			assert.Equal(t, "2024-03-01 10:00:00", row.ScreenshotTimeStamp)
			assert.Equal(t, `{"clicks":5}`, row.MouseJSON)
			assert.Equal(t, null.BoolFrom(true), row.ActiveFlag)
			assert.Equal(t, 7, row.ActiveMins)
			assert.Equal(t, "ProjectID_p1/TaskID_t1/2024-03-01/a.png", row.ImageURL.String)
			assert.False(t, row.ThumbNailURL.Valid)
			assert.True(t, e.CreatedAt.Equal(row.CreatedAt))
		})
	}
}

func TestInsertNullActiveFlag(t *testing.T) {
	s := newTestStore(t, "sqlite3")
	e := entry("u1", "2024-03-01 10:00:00")
	e.ActiveFlag = null.Bool{}

	_, err := s.Insert(context.Background(), e)
	require.NoError(t, err)

	got, err := s.List(context.Background(), models.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].ActiveFlag.Valid)
}

func TestInsertRejectsNegativeActiveMins(t *testing.T) {
	s := newTestStore(t, "sqlite3")
	e := entry("u1", "2024-03-01 10:00:00")
	e.ActiveMins = -1

	_, err := s.Insert(context.Background(), e)
	require.Error(t, err)
	assert.True(t, IsStoreError(err))
}

func TestListOrderingAndFilters(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			s := newTestStore(t, driver)
			ctx := context.Background()

			for _, e := range []*models.WorkDiaryEntry{
				entry("u1", "2024-03-01 12:00:00"),
				entry("u1", "2024-03-01 09:00:00"),
				entry("u2", "2024-03-01 10:00:00"),
				entry("u1", "2024-03-02 00:00:00"),
				entry("u1", "2024-02-29 23:59:59"),
			} {
				_, err := s.Insert(ctx, e)
				require.NoError(t, err)
			}

			all, err := s.List(ctx, models.EntryFilter{Order: models.OrderDesc})
			require.NoError(t, err)
			require.Len(t, all, 5)
			for i := 1; i < len(all); i++ {
				assert.GreaterOrEqual(t, all[i-1].ScreenshotTimeStamp, all[i].ScreenshotTimeStamp)
			}

			day, err := s.List(ctx, models.EntryFilter{
				UserID: "u1",
				From:   "2024-03-01 00:00:00",
				To:     "2024-03-02 00:00:00",
				Order:  models.OrderAsc,
			})
			require.NoError(t, err)
			require.Len(t, day, 2)
			assert.Equal(t, "2024-03-01 09:00:00", day[0].ScreenshotTimeStamp)
			assert.Equal(t, "2024-03-01 12:00:00", day[1].ScreenshotTimeStamp)

			limited, err := s.List(ctx, models.EntryFilter{Limit: 2})
			require.NoError(t, err)
			assert.Len(t, limited, 2)
		})
	}
}

func TestListEmptyReturnsEmptySlice(t *testing.T) {
	s := newTestStore(t, "sqlite3")
	got, err := s.List(context.Background(), models.EntryFilter{UserID: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSoftDelete(t *testing.T) {
	for _, driver := range drivers {
		t.Run(driver, func(t *testing.T) {
			s := newTestStore(t, driver)
			ctx := context.Background()

			keep, err := s.Insert(ctx, entry("u1", "2024-03-01 10:00:00"))
			require.NoError(t, err)
			drop, err := s.Insert(ctx, entry("u1", "2024-03-01 11:00:00"))
			require.NoError(t, err)

			require.NoError(t, s.SoftDelete(ctx, drop))

			got, err := s.List(ctx, models.EntryFilter{})
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, keep, got[0].ID)

			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			err = s.SoftDelete(ctx, drop)
			var nf *models.NotFoundError
			require.True(t, errors.As(err, &nf))
			assert.Equal(t, drop, nf.ID)

			err = s.SoftDelete(ctx, 999)
			assert.True(t, errors.As(err, &nf))
		})
	}
}

func TestTruncateResetsSequence(t *testing.T) {
	s := newTestStore(t, "sqlite3")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Insert(ctx, entry("u1", "2024-03-01 10:00:00"))
		require.NoError(t, err)
	}
	require.NoError(t, s.Truncate(ctx))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	id, err := s.Insert(ctx, entry("u1", "2024-03-01 10:00:00"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestOptimize(t *testing.T) {
	s := newTestStore(t, "sqlite3")
	assert.NoError(t, s.Optimize(context.Background()))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db, err := Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, NewMigrationRunner(db).Run())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestParseTimestamp(t *testing.T) {
	for _, s := range []string{"2024-03-01 10:00:00", "2024-03-01T10:00:00Z", "2024-03-01T10:00:00.123456789Z"} {
		ts, err := parseTimestamp(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2024, ts.Year())
	}
	_, err := parseTimestamp("yesterday")
	assert.Error(t, err)
}

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "ramadantracker.app/errors"
	"ramadantracker.app/models"
)

func subscriptionFixture(endpoint string) *models.Subscription {
	start := "2025-03-01"
	return &models.Subscription{
		Endpoint:         endpoint,
		Keys:             models.PushKeys{P256dh: "pub", Auth: "secret"},
		ReminderTime:     "20:00",
		Timezone:         "UTC",
		RamadanStartDate: &start,
		RamadanDays:      30,
		Enabled:          true,
	}
}

// storeUnderTest exercises the shared SubscriptionStore contract.
type storeUnderTest interface {
	Put(ctx context.Context, sub *models.Subscription) error
	Get(ctx context.Context, endpoint string) (*models.Subscription, error)
	Delete(ctx context.Context, endpoint string) error
	List(ctx context.Context, cursor string, limit int) ([]string, string, error)
}

func listAll(t *testing.T, s storeUnderTest) []string {
	t.Helper()

	var all []string
	cursor := ""
	for {
		endpoints, next, err := s.List(context.Background(), cursor, 2)
		require.NoError(t, err)
		all = append(all, endpoints...)
		if next == "" {
			return all
		}
		cursor = next
	}
}

func runStoreContractTests(t *testing.T, s storeUnderTest) {
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		sub, err := s.Get(ctx, "https://push.example.com/none")
		require.NoError(t, err)
		assert.Nil(t, sub)
	})

	t.Run("PutGetRoundTrip", func(t *testing.T) {
		fixture := subscriptionFixture("https://push.example.com/a")
		require.NoError(t, s.Put(ctx, fixture))

		got, err := s.Get(ctx, fixture.Endpoint)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, fixture.Endpoint, got.Endpoint)
		assert.Equal(t, "20:00", got.ReminderTime)
		assert.Equal(t, "secret", got.Keys.Auth)
		require.NotNil(t, got.RamadanStartDate)
		assert.Equal(t, "2025-03-01", *got.RamadanStartDate)
	})

	t.Run("PutOverwritesInFull", func(t *testing.T) {
		first := subscriptionFixture("https://push.example.com/b")
		first.LastSentDate = "2025-03-10"
		require.NoError(t, s.Put(ctx, first))

		replacement := subscriptionFixture("https://push.example.com/b")
		replacement.ReminderTime = "05:30"
		require.NoError(t, s.Put(ctx, replacement))

		got, err := s.Get(ctx, replacement.Endpoint)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "05:30", got.ReminderTime)
		assert.Empty(t, got.LastSentDate, "re-subscribe must reset send state")
	})

	t.Run("DeleteIsIdempotent", func(t *testing.T) {
		fixture := subscriptionFixture("https://push.example.com/c")
		require.NoError(t, s.Put(ctx, fixture))
		require.NoError(t, s.Delete(ctx, fixture.Endpoint))

		got, err := s.Get(ctx, fixture.Endpoint)
		require.NoError(t, err)
		assert.Nil(t, got)

		assert.NoError(t, s.Delete(ctx, fixture.Endpoint))
	})

	t.Run("ListScansAllPages", func(t *testing.T) {
		endpoints := []string{
			"https://push.example.com/p1",
			"https://push.example.com/p2",
			"https://push.example.com/p3",
			"https://push.example.com/p4",
			"https://push.example.com/p5",
		}
		for _, e := range endpoints {
			require.NoError(t, s.Put(ctx, subscriptionFixture(e)))
		}

		all := listAll(t, s)
		for _, e := range endpoints {
			assert.Contains(t, all, e)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContractTests(t, NewMemoryStore())
}

func TestMemoryStore_CorruptRecord(t *testing.T) {
	s := NewMemoryStore()
	s.PutRaw("https://push.example.com/corrupt", []byte("{not json"))

	_, err := s.Get(context.Background(), "https://push.example.com/corrupt")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CorruptRecordError, appErr.Type)
}

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	s, err := NewRedisStore(&RedisStoreConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStore(t *testing.T) {
	s, _ := newTestRedisStore(t)
	runStoreContractTests(t, s)
}

func TestRedisStore_CorruptRecord(t *testing.T) {
	s, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set(Key("https://push.example.com/corrupt"), "{not json"))

	_, err := s.Get(context.Background(), "https://push.example.com/corrupt")
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CorruptRecordError, appErr.Type)
}

func TestRedisStore_ConnectionFailure(t *testing.T) {
	_, err := NewRedisStore(&RedisStoreConfig{Addr: "localhost:1"})
	assert.Error(t, err)
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/markaz-exporter/internal/models"
)

// MockRedisClient is a mock for Redis client
type MockRedisClient struct {
	mock.Mock
}

func (m *MockRedisClient) XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd {
	mockArgs := m.Called(ctx, args)
	cmd := redis.NewStringCmd(ctx)
	if mockArgs.Get(0) != nil {
		cmd.SetErr(mockArgs.Error(0))
	} else {
		cmd.SetVal("1234567890-0")
	}
	return cmd
}

func (m *MockRedisClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func streamValues(t *testing.T, args *redis.XAddArgs) map[string]interface{} {
	t.Helper()
	values, ok := args.Values.(map[string]interface{})
	require.True(t, ok, "XAdd values should be a map")
	return values
}

func successRecord() *models.ProductRecord {
	return &models.ProductRecord{
		Title:         "Rose Gold Lipstick",
		BaseSKU:       "MZ123",
		Price:         "1250",
		OptionName:    models.OptionSize,
		VariantValues: []string{"S", "M"},
		ImageURLs:     []string{"https://cdn/a.jpg"},
		URL:           "https://www.markaz.app/explore/product/1",
		Status:        models.StatusSuccess,
	}
}

func TestPublisher_PublishProductScraped(t *testing.T) {
	ctx := context.Background()

	t.Run("successful record", func(t *testing.T) {
		mockRedis := new(MockRedisClient)
		publisher := NewPublisher(mockRedis, "", testLogger())

		var captured *redis.XAddArgs
		mockRedis.On("XAdd", ctx, mock.MatchedBy(func(args *redis.XAddArgs) bool {
			values, ok := args.Values.(map[string]interface{})
			return ok && args.Stream == DefaultStream &&
				values["event_type"] == string(EventTypeProductScraped) &&
				values["base_sku"] == "MZ123" &&
				values["success"] == "true"
		})).Run(func(a mock.Arguments) {
			captured = a.Get(1).(*redis.XAddArgs)
		}).Return(nil)

		require.NoError(t, publisher.PublishProductScraped(ctx, successRecord()))
		mockRedis.AssertExpectations(t)

		require.NotNil(t, captured)
		values := streamValues(t, captured)
		var payload ProductScrapedPayload
		require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &payload))
		assert.NotEmpty(t, payload.EventID)
		assert.Equal(t, values["event_id"], payload.EventID)
		assert.Equal(t, "markaz-exporter", payload.Source)
		assert.Equal(t, 2, payload.Variants)
		assert.Equal(t, 1, payload.Images)
		require.NotNil(t, payload.Product)
		assert.Equal(t, "Rose Gold Lipstick", payload.Product.Title)
	})

	t.Run("failed record carries no product", func(t *testing.T) {
		mockRedis := new(MockRedisClient)
		publisher := NewPublisher(mockRedis, "stream:custom", testLogger())

		var captured *redis.XAddArgs
		mockRedis.On("XAdd", ctx, mock.Anything).Run(func(a mock.Arguments) {
			captured = a.Get(1).(*redis.XAddArgs)
		}).Return(nil)

		rec := models.FailedRecord("https://www.markaz.app/x", "could not find product spans")
		require.NoError(t, publisher.PublishProductScraped(ctx, rec))

		require.NotNil(t, captured)
		assert.Equal(t, "stream:custom", captured.Stream)
		values := streamValues(t, captured)
		assert.Equal(t, "false", values["success"])

		var payload ProductScrapedPayload
		require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &payload))
		assert.Nil(t, payload.Product)
		assert.Equal(t, "Error: could not find product spans", payload.Status)
	})

	t.Run("redis failure is wrapped", func(t *testing.T) {
		mockRedis := new(MockRedisClient)
		publisher := NewPublisher(mockRedis, "", testLogger())

		mockRedis.On("XAdd", ctx, mock.Anything).Return(errors.New("redis connection failed"))

		err := publisher.PublishProductScraped(ctx, successRecord())
		require.Error(t, err)
		assert.Equal(t, "failed to publish to redis: redis connection failed", err.Error())
		mockRedis.AssertExpectations(t)
	})
}

func TestPublisher_Close(t *testing.T) {
	mockRedis := new(MockRedisClient)
	mockRedis.On("Close").Return(nil)

	require.NoError(t, NewPublisher(mockRedis, "", testLogger()).Close())
	mockRedis.AssertExpectations(t)
}

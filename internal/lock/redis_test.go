package lock

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/metinatakli/cinema-booking-engine/internal/mocks"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRedisLocker(client redis.UniversalClient) *RedisLocker {
	l := NewRedisLocker(client, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.retryDelay = time.Millisecond

	return l
}

func TestRedisLocker(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*mocks.MockRedisClient)
		ctxTimeout time.Duration
		wantErr    string
	}{
		{
			name: "should acquire a free key",
			setupMocks: func(m *mocks.MockRedisClient) {
				m.On("SetNX", mock.Anything, "lock:coupon:SPRING2030", mock.AnythingOfType("string"), time.Minute).
					Return(redis.NewBoolResult(true, nil)).Once()
				m.On("EvalSha", mock.Anything, mock.Anything, []string{"lock:coupon:SPRING2030"}, mock.AnythingOfType("string")).
					Return(redis.NewCmdResult(int64(1), nil)).Once()
			},
		},
		{
			name: "should retry until the holder releases the key",
			setupMocks: func(m *mocks.MockRedisClient) {
				m.On("SetNX", mock.Anything, "lock:coupon:SPRING2030", mock.Anything, time.Minute).
					Return(redis.NewBoolResult(false, nil)).Twice()
				m.On("SetNX", mock.Anything, "lock:coupon:SPRING2030", mock.Anything, time.Minute).
					Return(redis.NewBoolResult(true, nil)).Once()
				m.On("EvalSha", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(redis.NewCmdResult(int64(1), nil)).Once()
			},
		},
		{
			name: "should give up when the context ends",
			setupMocks: func(m *mocks.MockRedisClient) {
				m.On("SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(redis.NewBoolResult(false, nil))
			},
			ctxTimeout: 20 * time.Millisecond,
			wantErr:    context.DeadlineExceeded.Error(),
		},
		{
			name: "should fail when redis fails",
			setupMocks: func(m *mocks.MockRedisClient) {
				m.On("SetNX", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(redis.NewBoolResult(false, errors.New("connection refused"))).Once()
			},
			wantErr: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(mocks.MockRedisClient)
			tt.setupMocks(client)

			ctx := context.Background()
			if tt.ctxTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, tt.ctxTimeout)
				defer cancel()
			}

			unlock, err := newTestRedisLocker(client).Lock(ctx, "coupon:SPRING2030")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
				return
			}

			require.NoError(t, err)
			unlock()

			client.AssertExpectations(t)
		})
	}
}

func TestRedisLockerReleasesWithItsOwnToken(t *testing.T) {
	client := new(mocks.MockRedisClient)

	var token string
	client.On("SetNX", mock.Anything, "lock:k", mock.Anything, time.Minute).
		Run(func(args mock.Arguments) { token = args.String(2) }).
		Return(redis.NewBoolResult(true, nil)).Once()
	client.On("EvalSha", mock.Anything, mock.Anything, []string{"lock:k"}, mock.Anything).
		Run(func(args mock.Arguments) { assert.Equal(t, token, args.String(3)) }).
		Return(redis.NewCmdResult(int64(1), nil)).Once()

	unlock, err := newTestRedisLocker(client).Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()

	assert.NotEmpty(t, token)
	client.AssertExpectations(t)
}

package middleware

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client, mr
}

// newTestLimiter returns a limiter whose clock only moves when advanced.
func newTestLimiter(t *testing.T, client *redis.Client, cfg RateLimiterConfig) (*RateLimiter, func(time.Duration)) {
	rl := NewRateLimiter(client, cfg, zaptest.NewLogger(t))
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }
	return rl, func(d time.Duration) { now = now.Add(d) }
}

func successHandler(ctx context.Context, req any) (any, error) {
	return "success", nil
}

func peerContext(addr string) context.Context {
	tcpAddr, _ := net.ResolveTCPAddr("tcp", addr)
	return peer.NewContext(context.Background(), &peer.Peer{Addr: tcpAddr})
}

var getUserInfo = &grpc.UnaryServerInfo{FullMethod: "/user.v1.UserService/GetUser"}

func TestRateLimiter_WithinBurst(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 10, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	ctx := peerContext("127.0.0.1:12345")

	for i := 0; i < 10; i++ {
		resp, err := interceptor(ctx, nil, getUserInfo, successHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_ExceedBurst(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 5, BurstCapacity: 5, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	ctx := peerContext("127.0.0.1:12345")

	for i := 0; i < 5; i++ {
		_, err := interceptor(ctx, nil, getUserInfo, successHandler)
		require.NoError(t, err)
	}

	resp, err := interceptor(ctx, nil, getUserInfo, successHandler)
	require.Error(t, err)
	assert.Nil(t, resp)

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.ResourceExhausted, st.Code())
	assert.Contains(t, st.Message(), "rate limit exceeded")
}

func TestRateLimiter_Refill(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, advance := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 2, Enabled: true})

	assert.True(t, rl.Allow(context.Background(), "scope", "client"))
	assert.True(t, rl.Allow(context.Background(), "scope", "client"))
	assert.False(t, rl.Allow(context.Background(), "scope", "client"))

	advance(500 * time.Millisecond)
	assert.True(t, rl.Allow(context.Background(), "scope", "client"))
	assert.False(t, rl.Allow(context.Background(), "scope", "client"))

	// refill never exceeds capacity
	advance(time.Minute)
	assert.True(t, rl.Allow(context.Background(), "scope", "client"))
	assert.True(t, rl.Allow(context.Background(), "scope", "client"))
	assert.False(t, rl.Allow(context.Background(), "scope", "client"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: false})
	interceptor := rl.UnaryInterceptor()
	ctx := peerContext("127.0.0.1:12345")

	for i := 0; i < 10; i++ {
		resp, err := interceptor(ctx, nil, getUserInfo, successHandler)
		require.NoError(t, err)
		assert.Equal(t, "success", resp)
	}
}

func TestRateLimiter_NilClient(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true}, zaptest.NewLogger(t))

	assert.False(t, rl.Enabled())
	assert.True(t, rl.Allow(context.Background(), "scope", "client"))
	assert.True(t, rl.Allow(context.Background(), "scope", "client"))
}

func TestRateLimiter_FailOpen(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true})

	require.True(t, rl.Allow(context.Background(), "scope", "client"))
	mr.SetError("server unavailable")

	// the bucket is empty, but Redis errors let requests through
	assert.True(t, rl.Allow(context.Background(), "scope", "client"))
	assert.True(t, rl.Allow(context.Background(), "scope", "client"))
}

func TestRateLimiter_DifferentIPs(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 2, Enabled: true})
	interceptor := rl.UnaryInterceptor()

	ctx1 := peerContext("192.168.1.1:12345")
	for i := 0; i < 2; i++ {
		_, err := interceptor(ctx1, nil, getUserInfo, successHandler)
		require.NoError(t, err)
	}
	_, err := interceptor(ctx1, nil, getUserInfo, successHandler)
	require.Error(t, err)

	ctx2 := peerContext("192.168.1.2:12345")
	resp, err := interceptor(ctx2, nil, getUserInfo, successHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestRateLimiter_DifferentMethods(t *testing.T) {
	client, _ := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 1, BurstCapacity: 1, Enabled: true})
	interceptor := rl.UnaryInterceptor()
	ctx := peerContext("127.0.0.1:12345")

	_, err := interceptor(ctx, nil, getUserInfo, successHandler)
	require.NoError(t, err)

	createInfo := &grpc.UnaryServerInfo{FullMethod: "/user.v1.UserService/CreateUser"}
	resp, err := interceptor(ctx, nil, createInfo, successHandler)
	require.NoError(t, err)
	assert.Equal(t, "success", resp)
}

func TestRateLimiter_XForwardedFor(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 5, BurstCapacity: 10, Enabled: true})
	interceptor := rl.UnaryInterceptor()

	md := metadata.Pairs("x-forwarded-for", "203.0.113.1")
	ctx := metadata.NewIncomingContext(context.Background(), md)

	_, err := interceptor(ctx, nil, getUserInfo, successHandler)
	require.NoError(t, err)

	assert.True(t, mr.Exists(KeyPrefix+"/user.v1.UserService/GetUser:203.0.113.1"))
}

func TestRateLimiter_BucketTTL(t *testing.T) {
	client, mr := setupTestRedis(t)
	rl, _ := newTestLimiter(t, client, RateLimiterConfig{RequestsPerSecond: 2, BurstCapacity: 4, Enabled: true})

	require.True(t, rl.Allow(context.Background(), "/user.v1.UserService/GetUser", "127.0.0.1:12345"))

	ttl := mr.TTL(KeyPrefix + "/user.v1.UserService/GetUser:127.0.0.1:12345")
	assert.Greater(t, ttl.Seconds(), 0.0)
	assert.LessOrEqual(t, ttl.Seconds(), 60.0)
}

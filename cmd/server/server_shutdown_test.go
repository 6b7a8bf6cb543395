package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	appkafka "example.com/blogposts/internal/broker"
	"example.com/blogposts/internal/store"
	"github.com/stretchr/testify/require"
)

// freeAddr reserves an ephemeral port and releases it for the server to bind.
func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

// TestServer_GracefulShutdown verifies that Run serves requests and returns
// once its context is cancelled.
func TestServer_GracefulShutdown(t *testing.T) {
	// Use memory store and mock Kafka to avoid real dependencies
	memStore := store.NewMemory()
	mockKafka := &appkafka.MockKafka{Store: memStore}
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		Run(ctx, memStore, mockKafka, addr)
		close(done)
	}()

	// Wait until the listener is up
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case <-done:
		memStore.Close()
		require.NoError(t, mockKafka.Close())
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shutdown gracefully within the expected time")
	}

	_, err := http.Get("http://" + addr + "/healthz")
	require.Error(t, err, "listener must be closed after shutdown")
}

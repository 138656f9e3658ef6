package httptransport

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/spf13/viper"
)

// A graceful shutdown surfaces only the ErrServerClosed sentinel from Run,
// which callers filter out rather than log as a failure.
func TestRun_GracefulShutdownReturnsServerClosed(t *testing.T) {
	viper.Set("server.http.port", "0")
	t.Cleanup(func() { viper.Set("server.http.port", "") })

	transport := NewHTTPTransport(nil, nil, nil, nil, nil)

	runErr := make(chan error, 1)
	go func() {
		runErr <- transport.Run()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := transport.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error: %v", err)
	}

	select {
	case err := <-runErr:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Fatalf("expected http.ErrServerClosed after shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after shutdown")
	}
}

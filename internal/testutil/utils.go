package testutil

import (
	"log"
	"os"
	"testing"
)

// TestLogger returns a logger shaped like the server's but tagged for tests.
func TestLogger(t *testing.T) *log.Logger {
	logger := log.New(os.Stdout, "[liveroom-test] ", log.LstdFlags)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
	})
	return logger
}

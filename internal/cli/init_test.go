package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := SetupLogger(tt.level)
			ctx := context.Background()
			if !logger.Enabled(ctx, tt.want) || (tt.want > slog.LevelDebug && logger.Enabled(ctx, tt.want-4)) {
				t.Fatalf("logger level does not match %v", tt.want)
			}
			if slog.Default() != logger.Logger {
				t.Fatal("logger not installed as default")
			}
		})
	}
}

func TestInitSnapshots(t *testing.T) {
	logger := SetupLogger("error")
	repo := InitSnapshots(logger, filepath.Join(t.TempDir(), "snapshots.db"))
	defer repo.Close()
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestGracefulShutdownRunsCleanup(t *testing.T) {
	logger := SetupLogger("error")
	cleaned := make(chan struct{})
	ctx, done := GracefulShutdown(logger, time.Second, func(context.Context) { close(cleaned) })

	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	if ctx.Err() == nil {
		t.Fatal("context not cancelled")
	}
	select {
	case <-cleaned:
	default:
		t.Fatal("cleanup not called")
	}
}

package tagging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"hopper/internal/config"
	"hopper/internal/logging"
	"hopper/internal/services"
)

func newTestInvoker() *Invoker {
	cfg := config.Default()
	cfg.Tagging.Command = "beet"
	cfg.Tagging.Args = []string{"import", "-q"}
	return New(&cfg, logging.NewNop())
}

func TestTagFileAppendsQueuedPath(t *testing.T) {
	inv := newTestInvoker()

	var gotCommand string
	var gotArgs []string
	inv.run = func(_ context.Context, command string, args []string) ([]byte, error) {
		gotCommand = command
		gotArgs = args
		return []byte("imported"), nil
	}

	if err := inv.TagFile(context.Background(), "/queue/album/song.mp3"); err != nil {
		t.Fatalf("TagFile: %v", err)
	}
	if gotCommand != "beet" {
		t.Errorf("command = %q", gotCommand)
	}
	want := []string{"import", "-q", "/queue/album/song.mp3"}
	if len(gotArgs) != len(want) {
		t.Fatalf("args = %v, want %v", gotArgs, want)
	}
	for i := range want {
		if gotArgs[i] != want[i] {
			t.Fatalf("args = %v, want %v", gotArgs, want)
		}
	}
}

func TestTagFileWrapsNonZeroExit(t *testing.T) {
	inv := newTestInvoker()
	inv.run = func(context.Context, string, []string) ([]byte, error) {
		return []byte("no matching release found"), errors.New("exit status 1")
	}

	err := inv.TagFile(context.Background(), "/queue/song.mp3")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
}

func TestTagFileTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Tagging.Command = "beet"
	cfg.Tagging.TimeoutSeconds = 1
	inv := New(&cfg, logging.NewNop())
	inv.timeout = 10 * time.Millisecond
	inv.run = func(ctx context.Context, _ string, _ []string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	err := inv.TagFile(context.Background(), "/queue/song.mp3")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestTagFileDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Tagging.Command = ""
	inv := New(&cfg, logging.NewNop())
	inv.run = func(context.Context, string, []string) ([]byte, error) {
		t.Fatal("disabled invoker must not run the tool")
		return nil, nil
	}

	if inv.Enabled() {
		t.Fatal("expected disabled invoker")
	}
	if err := inv.TagFile(context.Background(), "/queue/song.mp3"); err != nil {
		t.Fatalf("disabled TagFile should be a no-op, got %v", err)
	}
}

func TestTagFileCarriesFreshRequestIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := config.Default()
	cfg.Tagging.Command = "beet"
	inv := New(&cfg, logger)
	inv.run = func(context.Context, string, []string) ([]byte, error) {
		return nil, nil
	}

	if err := inv.TagFile(context.Background(), "/queue/a.mp3"); err != nil {
		t.Fatal(err)
	}
	if err := inv.TagFile(context.Background(), "/queue/b.mp3"); err != nil {
		t.Fatal(err)
	}

	ids := regexp.MustCompile(`correlation_id=(\S+)`).FindAllStringSubmatch(buf.String(), -1)
	if len(ids) < 2 {
		t.Fatalf("expected correlation IDs in log output, got %q", buf.String())
	}
	if ids[0][1] == ids[len(ids)-1][1] {
		t.Fatalf("request IDs must differ per file, both %s", ids[0][1])
	}
}

func TestRunCommandCapturesCombinedOutput(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "tagger")
	payload := "#!/bin/sh\necho tagged \"$1\"\necho warning >&2\nexit 0\n"
	if err := os.WriteFile(script, []byte(payload), 0o755); err != nil {
		t.Fatal(err)
	}

	output, err := runCommand(context.Background(), script, []string{"/queue/x.mp3"})
	if err != nil {
		t.Fatalf("runCommand: %v", err)
	}
	text := string(output)
	if !bytes.Contains(output, []byte("tagged /queue/x.mp3")) {
		t.Errorf("stdout missing from output: %q", text)
	}
	if !bytes.Contains(output, []byte("warning")) {
		t.Errorf("stderr missing from output: %q", text)
	}
}

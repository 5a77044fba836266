package observability

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maine/techbriefs/internal/config"
)

func TestSetup(t *testing.T) {
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	t.Run("stderr only", func(t *testing.T) {
		closer, err := Setup(config.Logging{})
		if err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if err := closer.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	t.Run("rotating file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "techbriefs.log")
		closer, err := Setup(config.Logging{File: path, MaxSizeMB: 1, MaxBackups: 1, MaxAgeDays: 1})
		if err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		log.Printf("hello from test")
		log.SetOutput(os.Stderr)
		if err := closer.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		if !strings.Contains(string(data), "hello from test") {
			t.Errorf("log file = %q", data)
		}
	})
}

package binding

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// greeterModule imports env.log and exports run.
var greeterModule = []byte{
	0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
	// type: () -> ()
	0x01, 0x04, 0x01, 0x60, 0x00, 0x00,
	// import "env" "log" func 0
	0x02, 0x0B, 0x01, 0x03, 'e', 'n', 'v', 0x03, 'l', 'o', 'g', 0x00, 0x00,
	// func: one body of type 0
	0x03, 0x02, 0x01, 0x00,
	// export "run" func 1
	0x07, 0x07, 0x01, 0x03, 'r', 'u', 'n', 0x00, 0x01,
	// code: empty body
	0x0A, 0x04, 0x01, 0x02, 0x00, 0x0B,
}

// emptyModule is the smallest valid core module.
var emptyModule = []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}

func writeModule(t *testing.T, dir, file string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, file)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func newTestBinder(t *testing.T, cfg Config) *Binder {
	t.Helper()
	b, err := NewBinder(t.Context(), &cfg)
	if err != nil {
		t.Fatalf("NewBinder: %v", err)
	}
	t.Cleanup(func() {
		_ = b.Close(context.Background())
	})
	return b
}

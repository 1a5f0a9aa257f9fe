package engine

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestFilePreviewStoreRoundTrip(t *testing.T) {
	store, err := NewFilePreviewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	url, err := store.Create("photo.PNG", bytes.NewReader(pngBytes()))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Fatalf("handle = %q", url)
	}
	p := strings.TrimPrefix(url, "file://")
	if !strings.HasSuffix(p, ".png") {
		t.Fatalf("extension not kept (lowercased): %q", p)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(data, pngBytes()) {
		t.Fatalf("content mismatch")
	}

	if err := store.Revoke(url); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatalf("file still present after revoke: %v", err)
	}
	if err := store.Revoke(url); err == nil {
		t.Fatalf("second revoke succeeded")
	}
}

func TestFilePreviewStoreRejectsForeignHandle(t *testing.T) {
	store, err := NewFilePreviewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.Revoke("https://cdn/img.png"); err == nil {
		t.Fatalf("expected error for non-file handle")
	}
}

func TestFilePreviewStoreStripsCallerName(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFilePreviewStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	url, err := store.Create("../../../etc/passwd", bytes.NewReader([]byte("x")))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p := strings.TrimPrefix(url, "file://")
	if !strings.HasPrefix(p, dir) {
		t.Fatalf("preview escaped its directory: %q", p)
	}
}

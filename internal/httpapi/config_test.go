package httpapi

import (
	"context"
	"testing"
)

func TestSetMaxBodyBytes(t *testing.T) {
	orig := maxBodyBytes
	defer SetMaxBodyBytes(orig)

	SetMaxBodyBytes(2048)
	if maxBodyBytes != 2048 {
		t.Fatalf("maxBodyBytes = %d, want 2048", maxBodyBytes)
	}
	SetMaxBodyBytes(0)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("maxBodyBytes = %d, want default", maxBodyBytes)
	}
}

func TestSetMaxUploadBytes(t *testing.T) {
	orig := maxUploadBytes
	defer SetMaxUploadBytes(orig)

	SetMaxUploadBytes(1 << 20)
	if maxUploadBytes != 1<<20 {
		t.Fatalf("maxUploadBytes = %d", maxUploadBytes)
	}
	SetMaxUploadBytes(-1)
	if maxUploadBytes != 64<<20 {
		t.Fatalf("maxUploadBytes = %d, want default", maxUploadBytes)
	}
}

func TestSetCORSOptionsCopiesSlices(t *testing.T) {
	defer SetCORSOptions(false, nil, nil, nil)

	origins := []string{"https://app.example"}
	SetCORSOptions(true, origins, []string{"GET"}, []string{"Content-Type"})
	origins[0] = "mutated"
	if !corsEnabled || corsAllowedOrigins[0] != "https://app.example" {
		t.Fatalf("cors state: enabled=%v origins=%v", corsEnabled, corsAllowedOrigins)
	}
}

func TestSetBaseContext(t *testing.T) {
	defer SetBaseContext(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	SetBaseContext(ctx)
	if serverBaseCtx != ctx {
		t.Fatalf("base context not installed")
	}
	SetBaseContext(nil)
	if serverBaseCtx == nil || serverBaseCtx.Err() != nil {
		t.Fatalf("nil reset did not restore a live background context")
	}
}

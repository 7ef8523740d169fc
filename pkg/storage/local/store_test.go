package local

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestSaveOpenRemoveRoundtrip(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	written, err := store.Save("audio/abc.mp3", bytes.NewReader([]byte("fake-audio")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if written != int64(len("fake-audio")) {
		t.Fatalf("written = %d", written)
	}

	ok, err := store.Exists("audio/abc.mp3")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	size, err := store.Size("audio/abc.mp3")
	if err != nil || size != written {
		t.Fatalf("Size = %d, %v", size, err)
	}

	r, err := store.Open("audio/abc.mp3")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	content, err := io.ReadAll(r)
	_ = r.Close()
	if err != nil || string(content) != "fake-audio" {
		t.Fatalf("read back %q, %v", content, err)
	}

	if err := store.Remove("audio/abc.mp3"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	ok, err = store.Exists("audio/abc.mp3")
	if err != nil || ok {
		t.Fatalf("Exists after remove = %v, %v", ok, err)
	}

	// second removal is a no-op
	if err := store.Remove("audio/abc.mp3"); err != nil {
		t.Fatalf("Remove missing: %v", err)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for _, key := range []string{"", ".", "..", "../etc/passwd", "/abs/path"} {
		if _, err := store.Save(key, strings.NewReader("x")); err == nil {
			t.Fatalf("expected rejection for key %q", key)
		}
	}
}

func TestPing(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

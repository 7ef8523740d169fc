package fingerprint

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestComputeIsDeterministic(t *testing.T) {
	first, err := Compute(strings.NewReader("fake-audio"))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	second, err := Compute(strings.NewReader("fake-audio"))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if first != second {
		t.Fatalf("digests differ: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Fatalf("digest length = %d, want 64 hex chars", len(first))
	}
}

func TestComputeKnownVector(t *testing.T) {
	got, err := Compute(bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	// sha256 of the empty string
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Fatalf("digest = %s, want %s", got, want)
	}
}

func TestComputeDistinguishesContent(t *testing.T) {
	a, _ := Compute(strings.NewReader("a"))
	b, _ := Compute(strings.NewReader("b"))
	if a == b {
		t.Fatal("different content should hash differently")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk error")
}

func TestComputePropagatesReadErrors(t *testing.T) {
	if _, err := Compute(failingReader{}); err == nil {
		t.Fatal("expected read error to propagate")
	}
}

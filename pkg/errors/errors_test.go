package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusUnprocessableEntity},
		{CodeNotFound, http.StatusNotFound},
		{CodePayloadTooLarge, http.StatusRequestEntityTooLarge},
		{CodeConflict, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s).HTTPStatus = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	if MetadataFor(Code("BOGUS")).HTTPStatus != http.StatusInternalServerError {
		t.Fatal("unknown codes should map to internal")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("disk gone")
	err := Wrap(CodeDependency, cause, "read audio")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to survive errors.Is")
	}
	if err.Error() != "DEPENDENCY_ERROR: read audio" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestAsUnwrapsThroughFmtErrorf(t *testing.T) {
	inner := New(CodeNotFound, "entry not found")
	wrapped := fmt.Errorf("processing: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeNotFound {
		t.Fatalf("code = %s", typed.Code())
	}
	if !IsNotFound(wrapped) {
		t.Fatal("IsNotFound should see through wrapping")
	}
}

func TestDumpCollectsChain(t *testing.T) {
	cause := stdErrors.New("root")
	err := Wrap(CodeInternal, cause, "outer")

	d := Dump(err)
	if d.Code != CodeInternal {
		t.Fatalf("dump code = %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("chain length = %d, want 2", len(d.Chain))
	}
}

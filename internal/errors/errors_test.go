package errors

import (
	stderrors "errors"
	"testing"
)

func TestRegistryErrorUnwrap(t *testing.T) {
	inner := stderrors.New("connection refused")
	err := NewRegistryError("file:///tmp/reg", "fetch", inner)

	if !Is(err, inner) {
		t.Errorf("expected errors.Is to match wrapped error")
	}

	if err.Error() != `registry error: fetch failed for file:///tmp/reg: connection refused` {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestNotFoundErrorSuggestions(t *testing.T) {
	err := NewNotFoundError("package", "gunplay", "gameplay", "gunsway")
	want := `package not found: gunplay (did you mean: gameplay, gunsway?)`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}

	bare := NewNotFoundError("package", "gunplay")
	if bare.Error() != "package not found: gunplay" {
		t.Errorf("unexpected bare message: %s", bare.Error())
	}
}

func TestVersionErrorMessage(t *testing.T) {
	err := NewVersionError("CoolPlugin", "^2.0.0", []string{"1.0.0", "1.5.0"}, "")
	want := `version error for CoolPlugin: constraint "^2.0.0" cannot be satisfied (available: 1.0.0, 1.5.0)`
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}

func TestIntegrityErrorFormats(t *testing.T) {
	err := NewIntegrityError("checksum", "aa", "bb", "")
	want := "integrity error (checksum): expected aa, got bb"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}

	withMsg := NewIntegrityError("signature", "", "", "no public_key on package version")
	if withMsg.Error() != "integrity error (signature): no public_key on package version" {
		t.Errorf("unexpected message: %s", withMsg.Error())
	}
}

func TestAuthErrorFormats(t *testing.T) {
	err := NewAuthError("unauthorized", "token expired")
	if err.Error() != "authorization error: unauthorized: token expired" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestResolutionErrorPrefersExplanation(t *testing.T) {
	err := NewResolutionError("no_solution", "because A requires B ^2.0.0 which conflicts with ^1.0.0")
	if err.Error() != "because A requires B ^2.0.0 which conflicts with ^1.0.0" {
		t.Errorf("unexpected message: %s", err.Error())
	}

	bare := NewResolutionError("depth_exceeded", "")
	if bare.Error() != "dependency resolution failed: depth_exceeded" {
		t.Errorf("unexpected bare message: %s", bare.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Errorf("expected Wrap(nil, ...) to return nil")
	}
}

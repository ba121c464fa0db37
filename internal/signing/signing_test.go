package signing

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	data := []byte("plugin tarball bytes")
	sig := kp.Sign(data)

	ok, err := Verify(data, sig, kp.PublicKeyHex())
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("expected valid signature to verify")
	}
}

func TestVerifyRejectsTamperedData(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	sig := kp.Sign([]byte("original"))
	ok, err := Verify([]byte("tampered"), sig, kp.PublicKeyHex())
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Error("expected tampered data to fail verification")
	}
}

func TestVerifyWrongLengthSignatureIsFalseNotError(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	ok, err := Verify([]byte("data"), []byte("short-sig"), kp.PublicKeyHex())
	if err != nil {
		t.Fatalf("Verify() with malformed signature should not error, got %v", err)
	}
	if ok {
		t.Error("expected malformed signature to fail verification")
	}
}

func TestVerifyInvalidPublicKeyErrors(t *testing.T) {
	if _, err := Verify([]byte("data"), make([]byte, 64), "not-hex!!"); err == nil {
		t.Error("expected an error for non-hex public key")
	}
	if _, err := Verify([]byte("data"), make([]byte, 64), "abcd"); err == nil {
		t.Error("expected an error for a too-short public key")
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	privPath := filepath.Join(tmpDir, "keys", "private.pem")
	pubPath := filepath.Join(tmpDir, "keys", "public.pem")

	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if err := kp.Save(privPath, pubPath); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(privPath)
	if err != nil {
		t.Fatalf("stat private key: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("private key mode = %v, want 0600", info.Mode().Perm())
	}

	loaded, err := Load(privPath, pubPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.PublicKeyHex() != kp.PublicKeyHex() {
		t.Error("loaded public key does not match saved one")
	}

	sig := loaded.Sign([]byte("hello"))
	ok, err := Verify([]byte("hello"), sig, kp.PublicKeyHex())
	if err != nil || !ok {
		t.Errorf("round trip sign/verify with loaded key failed: ok=%v err=%v", ok, err)
	}
}

func TestLoadOrGenerateGeneratesOnFirstCall(t *testing.T) {
	tmpDir := t.TempDir()
	privPath := filepath.Join(tmpDir, "private.pem")
	pubPath := filepath.Join(tmpDir, "public.pem")

	kp1, generated, err := LoadOrGenerate(privPath, pubPath)
	if err != nil {
		t.Fatalf("LoadOrGenerate() error = %v", err)
	}
	if !generated {
		t.Error("expected first call to generate a new keypair")
	}

	kp2, generated, err := LoadOrGenerate(privPath, pubPath)
	if err != nil {
		t.Fatalf("LoadOrGenerate() second call error = %v", err)
	}
	if generated {
		t.Error("expected second call to load the existing keypair")
	}
	if kp1.PublicKeyHex() != kp2.PublicKeyHex() {
		t.Error("expected LoadOrGenerate to return the same keypair across calls")
	}
}

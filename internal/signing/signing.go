// Package signing manages Ed25519 keypairs for publisher authenticity:
// generating and persisting keys, and signing and verifying package
// tarball bytes.
package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	verrors "github.com/unrealpm/unrealpm/internal/errors"
)

const (
	privateKeyPEMLabel = "PRIVATE KEY"
	publicKeyPEMLabel  = "PUBLIC KEY"
)

// Keypair is a publisher's Ed25519 signing identity.
type Keypair struct {
	Private ed25519.PrivateKey
	Public  ed25519.PublicKey
}

// Generate creates a new random keypair.
func Generate() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, verrors.Wrap(err, "failed to generate keypair")
	}
	return &Keypair{Private: priv, Public: pub}, nil
}

// Load reads a keypair from PEM-encoded private and public key files.
func Load(privPath, pubPath string) (*Keypair, error) {
	privPEM, err := os.ReadFile(privPath)
	if err != nil {
		return nil, verrors.NewConfigError(privPath, 0, 0, "failed to read private key", err)
	}
	pubPEM, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, verrors.NewConfigError(pubPath, 0, 0, "failed to read public key", err)
	}

	privBlock, _ := pem.Decode(privPEM)
	if privBlock == nil || len(privBlock.Bytes) != ed25519.PrivateKeySize {
		return nil, verrors.NewConfigError(privPath, 0, 0, "malformed private key file", nil)
	}
	pubBlock, _ := pem.Decode(pubPEM)
	if pubBlock == nil || len(pubBlock.Bytes) != ed25519.PublicKeySize {
		return nil, verrors.NewConfigError(pubPath, 0, 0, "malformed public key file", nil)
	}

	return &Keypair{
		Private: ed25519.PrivateKey(privBlock.Bytes),
		Public:  ed25519.PublicKey(pubBlock.Bytes),
	}, nil
}

// Save writes the keypair as two PEM files, creating parent directories
// as needed. The private key file is created with owner-only read/write
// permissions on POSIX systems.
func (k *Keypair) Save(privPath, pubPath string) error {
	if err := os.MkdirAll(filepath.Dir(privPath), 0755); err != nil {
		return verrors.Wrap(err, "failed to create key directory")
	}
	if err := os.MkdirAll(filepath.Dir(pubPath), 0755); err != nil {
		return verrors.Wrap(err, "failed to create key directory")
	}

	privPEM := pem.EncodeToMemory(&pem.Block{Type: privateKeyPEMLabel, Bytes: k.Private})
	if err := os.WriteFile(privPath, privPEM, 0600); err != nil {
		return verrors.Wrap(err, "failed to write private key")
	}

	pubPEM := pem.EncodeToMemory(&pem.Block{Type: publicKeyPEMLabel, Bytes: k.Public})
	if err := os.WriteFile(pubPath, pubPEM, 0644); err != nil {
		return verrors.Wrap(err, "failed to write public key")
	}

	return nil
}

// LoadOrGenerate loads an existing keypair from privPath/pubPath if both
// are present, or generates and saves a fresh one otherwise.
func LoadOrGenerate(privPath, pubPath string) (*Keypair, bool, error) {
	_, privErr := os.Stat(privPath)
	_, pubErr := os.Stat(pubPath)
	if privErr == nil && pubErr == nil {
		kp, err := Load(privPath, pubPath)
		return kp, false, err
	}

	kp, err := Generate()
	if err != nil {
		return nil, false, err
	}
	if err := kp.Save(privPath, pubPath); err != nil {
		return nil, false, err
	}
	return kp, true, nil
}

// Sign returns a 64-byte Ed25519 signature over data.
func (k *Keypair) Sign(data []byte) []byte {
	return ed25519.Sign(k.Private, data)
}

// PublicKeyHex returns the public key as lowercase hex, the form stored
// in package metadata and on the wire.
func (k *Keypair) PublicKeyHex() string {
	return hex.EncodeToString(k.Public)
}

// Verify checks a signature against data and a hex-encoded public key.
//
// Verification is total with respect to the signature and the data: a
// tampered payload or a forged signature simply returns false, never an
// error. The only error case is a structurally invalid public key —
// wrong length once hex-decoded, or not valid hex at all — since that is
// a caller bug, not an untrusted-input outcome to report as "not signed".
func Verify(data, signature []byte, publicKeyHex string) (bool, error) {
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false, fmt.Errorf("invalid public key encoding: %w", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("invalid public key length: got %d bytes, want %d", len(pub), ed25519.PublicKeySize)
	}
	if len(signature) != ed25519.SignatureSize {
		return false, nil
	}

	return ed25519.Verify(ed25519.PublicKey(pub), data, signature), nil
}

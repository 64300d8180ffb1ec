package kalshi

// auth.go — Kalshi API request signing.
//
// Every request carries three headers derived from an RSA-PSS signature over
// timestamp_ms + METHOD + path (path without query parameters).

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Signer holds the API key ID and the RSA private key that authenticate
// requests against the Kalshi API.
type Signer struct {
	keyID      string
	privateKey *rsa.PrivateKey
}

// NewSigner builds a Signer from the key ID and a PEM private key file.
// A missing or malformed key is a startup-fatal condition for the caller.
func NewSigner(keyID, privateKeyPath string) (*Signer, error) {
	if keyID == "" {
		return nil, fmt.Errorf("kalshi.NewSigner: api key id is required")
	}
	key, err := loadPrivateKey(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("kalshi.NewSigner: %w", err)
	}
	return &Signer{keyID: keyID, privateKey: key}, nil
}

// loadPrivateKey reads an RSA private key from a PEM file.
// Tries PKCS#8 first, then falls back to PKCS#1.
func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %q", path)
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("key in %q is not RSA", path)
		}
		return rsaKey, nil
	}

	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return rsaKey, nil
}

// Headers returns the three auth headers for method + path.
// path must exclude query parameters.
func (s *Signer) Headers(method, path string) (map[string]string, error) {
	ts := time.Now().UnixMilli()
	sig, err := s.sign(ts, method, path)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"KALSHI-ACCESS-KEY":       s.keyID,
		"KALSHI-ACCESS-TIMESTAMP": strconv.FormatInt(ts, 10),
		"KALSHI-ACCESS-SIGNATURE": sig,
	}, nil
}

func (s *Signer) sign(timestampMs int64, method, path string) (string, error) {
	message := fmt.Sprintf("%d%s%s", timestampMs, method, path)
	hashed := sha256.Sum256([]byte(message))

	sig, err := rsa.SignPSS(rand.Reader, s.privateKey, crypto.SHA256, hashed[:],
		&rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	if err != nil {
		return "", fmt.Errorf("sign request: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lectoria Contributors

// Package tls generates and stores the self-signed certificate used to
// serve the API over HTTPS in development. Production deployments must
// supply their own certificate files; nothing here is trusted by
// browsers.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
)

// Certificate file names under the certs directory.
const (
	certFileName = "server.crt"
	keyFileName  = "server.key"
)

// selfSignedTTL is the lifetime of a generated development certificate.
const selfSignedTTL = 365 * 24 * time.Hour

// EnsureServerCert returns the paths of the server certificate and key
// under dir, generating a self-signed pair for the given hosts when
// none exists yet. Host entries that parse as IP addresses become IP
// SANs, the rest become DNS SANs.
func EnsureServerCert(dir string, hosts []string) (certFile, keyFile string, err error) {
	certFile = filepath.Join(dir, certFileName)
	keyFile = filepath.Join(dir, keyFileName)

	if fileExists(certFile) && fileExists(keyFile) {
		return certFile, keyFile, nil
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", "", oops.Code("TLS_GENERATE_FAILED").
			With("dir", dir).
			Wrap(err)
	}

	der, key, err := generateSelfSigned(hosts)
	if err != nil {
		return "", "", err
	}

	if err := saveCert(certFile, der); err != nil {
		return "", "", err
	}
	if err := saveKey(keyFile, key); err != nil {
		_ = os.Remove(certFile) //nolint:errcheck // best effort cleanup
		return "", "", err
	}

	return certFile, keyFile, nil
}

// generateSelfSigned creates a self-signed ECDSA P-256 certificate.
func generateSelfSigned(hosts []string) ([]byte, *ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, oops.Code("TLS_GENERATE_FAILED").
			With("operation", "generate key").
			Wrap(err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, oops.Code("TLS_GENERATE_FAILED").
			With("operation", "generate serial").
			Wrap(err)
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"Lectoria"},
			CommonName:   "lectoria-dev",
		},
		NotBefore:   time.Now(),
		NotAfter:    time.Now().Add(selfSignedTTL),
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, oops.Code("TLS_GENERATE_FAILED").
			With("operation", "create certificate").
			Wrap(err)
	}

	return der, key, nil
}

// saveCert writes a DER certificate to a PEM file.
func saveCert(path string, der []byte) error {
	f, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return oops.Code("TLS_GENERATE_FAILED").
			With("path", path).
			Wrap(err)
	}

	if err := pem.Encode(f, &pem.Block{Type: "CERTIFICATE", Bytes: der}); err != nil {
		_ = f.Close() //nolint:errcheck // encode error takes precedence
		return oops.Code("TLS_GENERATE_FAILED").
			With("path", path).
			Wrap(err)
	}

	if err := f.Close(); err != nil {
		return oops.Code("TLS_GENERATE_FAILED").
			With("path", path).
			Wrap(err)
	}
	return nil
}

// saveKey writes an ECDSA private key to a PEM file.
func saveKey(path string, key *ecdsa.PrivateKey) error {
	keyBytes, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return oops.Code("TLS_GENERATE_FAILED").
			With("operation", "marshal key").
			Wrap(err)
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return oops.Code("TLS_GENERATE_FAILED").
			With("path", path).
			Wrap(err)
	}

	if err := pem.Encode(f, &pem.Block{Type: "EC PRIVATE KEY", Bytes: keyBytes}); err != nil {
		_ = f.Close() //nolint:errcheck // encode error takes precedence
		return oops.Code("TLS_GENERATE_FAILED").
			With("path", path).
			Wrap(err)
	}

	if err := f.Close(); err != nil {
		return oops.Code("TLS_GENERATE_FAILED").
			With("path", path).
			Wrap(err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

package testinfra

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCertBundle(t *testing.T) {
	bundle, err := GenerateCertBundle([]string{"localhost", "127.0.0.1"})
	require.NoError(t, err)

	ca := parseCert(t, bundle.CACert)
	server := parseCert(t, bundle.ServerCert)

	assert.True(t, ca.IsCA)
	assert.Equal(t, "dwhetl-test-ca", ca.Subject.CommonName)

	assert.False(t, server.IsCA)
	assert.Equal(t, "dwhetl-test-warehouse", server.Subject.CommonName)
	assert.Contains(t, server.DNSNames, "localhost")
	require.Len(t, server.IPAddresses, 1)
	assert.Equal(t, "127.0.0.1", server.IPAddresses[0].String())

	pool := x509.NewCertPool()
	pool.AddCert(ca)
	_, err = server.Verify(x509.VerifyOptions{DNSName: "localhost", Roots: pool, KeyUsages: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}})
	assert.NoError(t, err, "server cert should chain to CA")

	_, err = tls.X509KeyPair(bundle.ServerCert, bundle.ServerKey)
	assert.NoError(t, err, "server key should match its certificate")
}

func TestCertBundle_WriteToDir(t *testing.T) {
	bundle, err := GenerateCertBundle([]string{"localhost"})
	require.NoError(t, err)

	paths, err := bundle.WriteToDir(t.TempDir())
	require.NoError(t, err)

	for _, p := range []string{paths.CACert, paths.ServerCert, paths.ServerKey} {
		info, err := os.Stat(p)
		require.NoError(t, err, "file should exist: %s", p)
		if runtime.GOOS != "windows" {
			assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "file permissions for %s", p)
		}
	}
}

func TestGenerateCertBundle_ForeignCADoesNotVerify(t *testing.T) {
	bundle1, err := GenerateCertBundle([]string{"localhost"})
	require.NoError(t, err)
	bundle2, err := GenerateCertBundle([]string{"localhost"})
	require.NoError(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(parseCert(t, bundle1.CACert))

	_, err = parseCert(t, bundle2.ServerCert).Verify(x509.VerifyOptions{Roots: pool})
	assert.Error(t, err, "cert from different CA should not verify")
}

func TestGenerateCertBundle_ValidityWindow(t *testing.T) {
	bundle, err := GenerateCertBundle([]string{"localhost"})
	require.NoError(t, err)

	now := time.Now()
	for _, pemData := range [][]byte{bundle.CACert, bundle.ServerCert} {
		cert := parseCert(t, pemData)
		assert.True(t, cert.NotBefore.Before(now), cert.Subject.CommonName)
		assert.WithinDuration(t, now.Add(certLifetime), cert.NotAfter, time.Minute, cert.Subject.CommonName)
	}

	ca := parseCert(t, bundle.CACert)
	assert.NoError(t, ca.CheckSignatureFrom(ca), "CA should be self-signed")
	assert.NoError(t, parseCert(t, bundle.ServerCert).CheckSignatureFrom(ca))
}

func parseCert(t *testing.T, pemData []byte) *x509.Certificate {
	t.Helper()
	block, _ := pem.Decode(pemData)
	require.NotNil(t, block)
	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err)
	return cert
}

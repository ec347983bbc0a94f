// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telekom/geotrace/test"
)

// writeCertificate writes a self-signed PEM certificate to a temporary file
func writeCertificate(t *testing.T) string {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "collector.example.com"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	return path
}

func TestExporter_Validate(t *testing.T) {
	test.MarkAsShort(t)

	for _, e := range []Exporter{HTTP, GRPC, STDOUT, NOOP} {
		assert.NoError(t, e.Validate(), "exporter %q", e)
	}
	assert.Error(t, Exporter("zipkin").Validate())
}

func TestExporter_IsExporting(t *testing.T) {
	test.MarkAsShort(t)

	assert.True(t, HTTP.IsExporting())
	assert.True(t, GRPC.IsExporting())
	assert.False(t, STDOUT.IsExporting())
	assert.False(t, NOOP.IsExporting())
}

func TestExporter_Create(t *testing.T) {
	test.MarkAsShort(t)

	tests := []struct {
		name     string
		exporter Exporter
		config   Config
		wantErr  bool
	}{
		{name: "noop", exporter: NOOP},
		{name: "stdout", exporter: STDOUT},
		{name: "http", exporter: HTTP, config: Config{Url: "http://localhost:4318"}},
		{name: "grpc", exporter: GRPC, config: Config{Url: "http://localhost:4317"}},
		{name: "unsupported", exporter: "zipkin", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			exp, err := tt.exporter.Create(ctx, &tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, exp)
			assert.NoError(t, exp.Shutdown(ctx))
		})
	}
}

func TestGetCommonConfig(t *testing.T) {
	test.MarkAsShort(t)

	t.Run("token becomes bearer header", func(t *testing.T) {
		headers, tlsCfg, err := getCommonConfig(&Config{Token: "secret"})
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"Authorization": "Bearer secret"}, headers)
		assert.Nil(t, tlsCfg)
	})

	t.Run("no token no headers", func(t *testing.T) {
		headers, _, err := getCommonConfig(&Config{})
		require.NoError(t, err)
		assert.Empty(t, headers)
	})

	t.Run("tls error is wrapped", func(t *testing.T) {
		_, _, err := getCommonConfig(&Config{TLS: TLSConfig{Enabled: true, CertPath: "/does/not/exist.pem"}})
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestGetTLSConfig(t *testing.T) {
	test.MarkAsShort(t)

	t.Run("disabled", func(t *testing.T) {
		cfg, err := getTLSConfig(TLSConfig{CertPath: "ignored"})
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("enabled without certificate uses system roots", func(t *testing.T) {
		cfg, err := getTLSConfig(TLSConfig{Enabled: true})
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Nil(t, cfg.RootCAs)
		assert.Equal(t, uint16(0x0303), cfg.MinVersion)
	})

	t.Run("custom certificate", func(t *testing.T) {
		cfg, err := getTLSConfig(TLSConfig{Enabled: true, CertPath: writeCertificate(t)})
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.NotNil(t, cfg.RootCAs)
	})

	t.Run("invalid pem", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))
		_, err := getTLSConfig(TLSConfig{Enabled: true, CertPath: path})
		assert.Error(t, err)
	})
}

func TestConfig_Validate(t *testing.T) {
	test.MarkAsShort(t)

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "empty config", config: Config{}},
		{name: "stdout", config: Config{Enabled: true, Exporter: STDOUT}},
		{name: "http with url", config: Config{Enabled: true, Exporter: HTTP, Url: "http://collector:4318"}},
		{name: "grpc without url", config: Config{Enabled: true, Exporter: GRPC}, wantErr: true},
		{name: "unsupported exporter", config: Config{Exporter: "zipkin"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

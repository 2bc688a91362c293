package serve

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"io"
	"math/big"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/f1-livetiming-go/log"
	"github.com/mpapenbr/f1-livetiming-go/pkg/config"
)

func writeKeyPair(t *testing.T, dir, cn string) (certFile, keyFile string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		DNSNames:     []string{cn},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDer, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	certFile = filepath.Join(dir, "tls.crt")
	keyFile = filepath.Join(dir, "tls.key")
	require.NoError(t, os.WriteFile(certFile,
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile,
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDer}), 0o600))
	return certFile, keyFile
}

func commonName(t *testing.T, c *certs) string {
	t.Helper()
	cert, err := c.getCertificate(nil)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	return leaf.Subject.CommonName
}

func TestCertsLoadAndReload(t *testing.T) {
	dir := t.TempDir()
	certFile, keyFile := writeKeyPair(t, dir, "first.local")
	c := newCerts(certFiles{cert: certFile, key: keyFile}, log.New(io.Discard, log.DebugLevel))
	cfg := c.tlsConfig()
	require.NotNil(t, cfg)
	assert.Equal(t, "first.local", commonName(t, c))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.watch(ctx) }()
	// give the watcher time to register the files
	time.Sleep(100 * time.Millisecond)

	writeKeyPair(t, dir, "second.local")
	assert.Eventually(t, func() bool {
		cert, err := c.getCertificate(nil)
		if err != nil {
			return false
		}
		leaf, err := x509.ParseCertificate(cert.Certificate[0])
		return err == nil && leaf.Subject.CommonName == "second.local"
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}

func TestCertsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	c := newCerts(certFiles{
		cert: filepath.Join(dir, "missing.crt"),
		key:  filepath.Join(dir, "missing.key"),
	}, log.New(io.Discard, log.DebugLevel))
	assert.Nil(t, c.tlsConfig())
	_, err := c.getCertificate(nil)
	assert.ErrorIs(t, err, errNoCertificate)
}

func TestHTTPServiceLifecycle(t *testing.T) {
	var addr string
	svc := newHTTPService("test", &http.Server{
		Addr: "127.0.0.1:0",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}),
		ReadHeaderTimeout: time.Second,
	}, false)
	ready := make(chan struct{})
	svc.listen = func(network, a string) (net.Listener, error) {
		ln, err := net.Listen(network, a)
		if err == nil {
			addr = ln.Addr().String()
			close(ready)
		}
		return ln, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()
	<-ready

	resp, err := http.Get("http://" + addr)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
	assert.Equal(t, "test", svc.String())
}

func TestHTTPServiceListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	svc := newHTTPService("busy", &http.Server{
		Addr:              ln.Addr().String(),
		ReadHeaderTimeout: time.Second,
	}, false)
	assert.Error(t, svc.Serve(context.Background()))
}

func TestRequiredServices(t *testing.T) {
	origNats, origPush := config.NatsURL, config.PushURL
	t.Cleanup(func() { config.NatsURL, config.PushURL = origNats, origPush })

	tests := []struct {
		name string
		nats string
		push string
		want []string
	}{
		{"none", "", "", []string{}},
		{"nats default port", "nats://broker", "", []string{"broker:4222"}},
		{"both", "nats://broker:4223", "wss://push.example.com/live",
			[]string{"broker:4223", "push.example.com:443"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config.NatsURL, config.PushURL = tt.nats, tt.push
			assert.Equal(t, tt.want, requiredServices())
		})
	}
}

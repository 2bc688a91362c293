package serve

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/f1-livetiming-go/log"
)

var errNoCertificate = errors.New("no certificate loaded")

type (
	certFiles struct {
		cert string
		key  string
		ca   string
	}
	// certs serves the current key pair and reloads it when the files change
	certs struct {
		files certFiles
		l     *log.Logger
		mu    sync.RWMutex
		cert  *tls.Certificate
	}
)

func newCerts(files certFiles, l *log.Logger) *certs {
	return &certs{files: files, l: l}
}

// tlsConfig returns nil if no key pair could be loaded
func (c *certs) tlsConfig() *tls.Config {
	if err := c.load(); err != nil {
		c.l.Error("could not load TLS key pair", log.ErrorField(err))
		return nil
	}
	ret := &tls.Config{
		GetCertificate: c.getCertificate,
		MinVersion:     tls.VersionTLS13,
	}
	if c.files.ca != "" {
		c.l.Info("Loading ca cert", log.String("file", c.files.ca))
		caCert, err := os.ReadFile(c.files.ca)
		if err != nil {
			c.l.Error("could not read TLS root CA", log.ErrorField(err))
			return ret
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caCert); !ok {
			c.l.Error("could not append cert to pool")
			return ret
		}
		ret.ClientCAs = pool
		ret.ClientAuth = tls.VerifyClientCertIfGiven
	}
	return ret
}

func (c *certs) getCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.cert == nil {
		return nil, errNoCertificate
	}
	return c.cert, nil
}

func (c *certs) load() error {
	c.l.Info("Loading cert",
		log.String("key", c.files.key),
		log.String("cert", c.files.cert))
	cert, err := tls.LoadX509KeyPair(c.files.cert, c.files.key)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cert = &cert
	return nil
}

// watch reloads the key pair on changes until ctx is done.
// A failed reload keeps the previous certificate.
func (c *certs) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	for _, f := range []string{c.files.cert, c.files.key} {
		if err := watcher.Add(f); err != nil {
			c.l.Error("could not watch file", log.String("file", f), log.ErrorField(err))
		}
	}
	for {
		select {
		case <-ctx.Done():
			c.l.Debug("context done, stopping cert reload")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			c.l.Debug("change detected",
				log.String("file", event.Name), log.String("op", event.Op.String()))
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Chmod) ||
				event.Has(fsnotify.Create) {

				c.l.Info("cert file changed, reloading cert", log.String("file", event.Name))
				if err := c.load(); err != nil {
					c.l.Error("could not reload TLS key pair", log.ErrorField(err))
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.l.Error("watcher error", log.ErrorField(err))
		}
	}
}

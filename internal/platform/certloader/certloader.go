// Package certloader is the out-of-core collaborator that turns a PEM
// certificate/key pair on disk into a ready-to-use server TLS configuration.
// The core session state machine depends only on a *tls.Config; it does not
// know or care how the certificate was obtained.
package certloader

import (
	"crypto/tls"

	"github.com/pkg/errors"
)

// Load reads a PEM certificate and private key from disk and returns a
// server-side tls.Config. TLS 1.0 and 1.1 are disabled (MinVersion TLS 1.2);
// cipher suite selection is left to crypto/tls's curated default preference
// order, which already favors ephemeral key exchange over static RSA.
func Load(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, errors.Wrapf(err, "load TLS certificate %q / key %q", certFile, keyFile)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

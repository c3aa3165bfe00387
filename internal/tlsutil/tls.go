// Package tlsutil loads certificate/key pairs into the tls.Config each of
// porcod's two public listeners needs: the webserver (h2, http/1.1,
// http/1.0) and the gRPC service (h2 only, gRPC's native transport).
package tlsutil

import (
	"crypto/tls"
	"fmt"
)

// WebserverALPN is the ALPN protocol list offered by the public HTTP
// listener: it must keep serving plain HTTP/1 clients alongside HTTP/2.
var WebserverALPN = []string{"h2", "http/1.1", "http/1.0"}

// GRPCALPN is the ALPN protocol list offered by the RPC listener. gRPC
// only ever negotiates h2.
var GRPCALPN = []string{"h2"}

// Init is a deliberate no-op. The Rust implementation this daemon is
// modeled on performs a one-time process-wide default crypto provider
// install (rustls requires picking one at startup); Go's crypto/tls has
// no equivalent step, so this function exists purely so callers mirror
// that startup sequence and so the absence of such a step is visible and
// documented rather than silently missing.
func Init() {}

// LoadConfig reads a PEM certificate and private key from disk and
// returns a server-side tls.Config restricted to alpnProtocols.
func LoadConfig(certFile, keyFile string, alpnProtocols []string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("tlsutil: loading certificate/key pair: %w", err)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   alpnProtocols,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

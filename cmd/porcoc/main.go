// Command porcoc is the private-side client half of porco: it dials
// porcod's gRPC tunnel, drains the stream of tunneled requests, and
// replays each one against a target HTTP service running alongside it.
package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"flag"
	"net/url"
	"os"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/periscope-io/porco/api/porcopb"
	"github.com/periscope-io/porco/internal/egress"
)

func main() {
	targetURL := flag.String("target-url", "", "url of the private service to replay tunneled requests against")
	porcodURL := flag.String("porcod-url", "", "host:port of the porcod gRPC tunnel")
	porcodCerts := flag.String("porcod-certs", "", "path to porcod's gRPC TLS certificate, for verifying the connection")
	logLevel := flag.String("log-level", log.InfoLevel.String(), "log level, must be one of: panic, fatal, error, warn, info, debug")
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("invalid log-level: %s", *logLevel)
	}
	log.SetLevel(level)

	if *targetURL == "" || *porcodURL == "" {
		log.Fatal("-target-url and -porcod-url are required")
	}

	target, err := url.Parse(*targetURL)
	if err != nil {
		log.Fatalf("invalid -target-url: %s", err)
	}

	creds, err := dialCreds(*porcodCerts)
	if err != nil {
		log.Fatalf("failed to load -porcod-certs: %s", err)
	}

	conn, err := grpc.Dial(*porcodURL, creds)
	if err != nil {
		log.Fatalf("failed to dial %s: %s", *porcodURL, err)
	}
	defer conn.Close()

	client := porcopb.NewInnerClient(conn)

	ctx := context.Background()
	stream, err := client.StreamRequests(ctx, &porcopb.Void{})
	if err != nil {
		log.Fatalf("failed to open request stream: %s", err)
	}

	dispatcher := egress.New(target, nil, client, log.WithField("component", "egress"))
	log.Infof("attached to %s, replaying against %s", *porcodURL, target)
	if err := dispatcher.Run(ctx, stream); err != nil {
		log.Errorf("request stream closed: %s", err)
		os.Exit(1)
	}
}

func dialCreds(certFile string) (grpc.DialOption, error) {
	if certFile == "" {
		return grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{})), nil
	}

	pem, err := os.ReadFile(certFile)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errors.New("no certificates found in -porcod-certs PEM file")
	}
	return grpc.WithTransportCredentials(credentials.NewTLS(&tls.Config{RootCAs: pool})), nil
}

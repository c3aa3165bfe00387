// Command porcod is the public-facing daemon half of porco: it accepts
// HTTP traffic on a public listener, tunnels accepted requests over an
// outbound gRPC stream to whichever porcoc client is attached, and
// relays that client's replies back to the original caller.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	grpcprometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/periscope-io/porco/api/porcopb"
	"github.com/periscope-io/porco/internal/filter"
	"github.com/periscope-io/porco/internal/ingress"
	"github.com/periscope-io/porco/internal/rpcserver"
	"github.com/periscope-io/porco/internal/tlsutil"
	"github.com/periscope-io/porco/internal/tunnel"
	"github.com/periscope-io/porco/pkg/admin"
)

type filterFlags []string

func (f *filterFlags) String() string { return strings.Join(*f, ",") }
func (f *filterFlags) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	grpcAddr := flag.String("grpc-addr", "0.0.0.0:50051", "address the gRPC tunnel listens on")
	grpcCerts := flag.String("grpc-certs", "", "path to the gRPC listener's TLS certificate")
	grpcKey := flag.String("grpc-private-key", "", "path to the gRPC listener's TLS private key")
	webserverAddr := flag.String("webserver-addr", "0.0.0.0:80", "address the public webserver listens on")
	webserverCerts := flag.String("webserver-certs", "", "path to the webserver's TLS certificate")
	webserverKey := flag.String("webserver-private-key", "", "path to the webserver's TLS private key")
	webserverTimeout := flag.Int("webserver-timeout", 60, "seconds to wait for a tunneled response before failing a request")
	adminAddr := flag.String("admin-addr", ":9996", "address to serve scrapable metrics and health checks on")
	logLevel := flag.String("log-level", log.InfoLevel.String(), "log level, must be one of: panic, fatal, error, warn, info, debug")
	var webserverFilter filterFlags
	flag.Var(&webserverFilter, "webserver-filter", "regex pattern a request path must match to be tunneled; may be repeated")
	flag.Parse()

	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("invalid log-level: %s", *logLevel)
	}
	log.SetLevel(level)

	tlsutil.Init()

	allowList, err := filter.Compile(webserverFilter)
	if err != nil {
		log.Fatalf("invalid webserver-filter: %s", err)
	}

	store := tunnel.NewStore()
	bus := tunnel.NewBus()
	dispatcher := tunnel.NewDispatcher(store, bus)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	fatal := make(chan error, 3)

	grpcServer := newGRPCServer(*grpcCerts, *grpcKey)
	rpc := rpcserver.New(bus, store, log.WithField("component", "rpcserver"))
	porcopb.RegisterInnerServer(grpcServer, rpc)

	grpcLis, err := net.Listen("tcp", *grpcAddr)
	if err != nil {
		log.Fatalf("failed to listen on %s: %s", *grpcAddr, err)
	}
	go func() {
		log.Infof("starting gRPC tunnel on %s", *grpcAddr)
		fatal <- grpcServer.Serve(grpcLis)
	}()

	handler := ingress.NewHandler(dispatcher, allowList, time.Duration(*webserverTimeout)*time.Second, log.WithField("component", "ingress"))
	webserver := newWebserver(*webserverAddr, *webserverCerts, *webserverKey, handler)
	go func() {
		log.Infof("starting public webserver on %s", *webserverAddr)
		var err error
		if *webserverCerts != "" {
			err = webserver.ListenAndServeTLS("", "")
		} else {
			err = webserver.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			fatal <- err
		}
	}()

	ready := func() bool { return bus.SubscriberCount() > 0 }
	adminServer := admin.NewServer(*adminAddr, false, ready)
	go func() {
		log.Infof("starting admin server on %s", *adminAddr)
		if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal <- err
		}
	}()

	select {
	case <-stop:
		log.Info("shutting down")
	case err := <-fatal:
		log.Errorf("fatal listener error, shutting down: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	grpcServer.GracefulStop()
	webserver.Shutdown(ctx)
	adminServer.Shutdown(ctx)
	bus.Close()
	store.Close()
}

func newGRPCServer(certFile, keyFile string) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(grpcprometheus.UnaryServerInterceptor),
		grpc.StreamInterceptor(grpcprometheus.StreamServerInterceptor),
	}
	if certFile != "" {
		cfg, err := tlsutil.LoadConfig(certFile, keyFile, tlsutil.GRPCALPN)
		if err != nil {
			log.Fatalf("failed to load gRPC TLS config: %s", err)
		}
		opts = append(opts, grpc.Creds(credentials.NewTLS(cfg)))
	}
	server := grpc.NewServer(opts...)
	grpcprometheus.Register(server)
	return server
}

func newWebserver(addr, certFile, keyFile string, handler http.Handler) *http.Server {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}
	if certFile != "" {
		cfg, err := tlsutil.LoadConfig(certFile, keyFile, tlsutil.WebserverALPN)
		if err != nil {
			log.Fatalf("failed to load webserver TLS config: %s", err)
		}
		server.TLSConfig = cfg
		if err := http2.ConfigureServer(server, &http2.Server{}); err != nil {
			log.Fatalf("failed to configure HTTP/2: %s", err)
		}
	}
	return server
}

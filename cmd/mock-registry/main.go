// Command mock-registry serves deterministic identity-registry answers for
// local development. DNIs starting with 0000 are reported as unknown.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"padron/internal/identity/registry/mockregistry"
	"padron/internal/platform/httpserver"
	"padron/internal/platform/logger"
	"padron/pkg/platform/middleware/accesslog"
)

func main() {
	addr := flag.String("addr", ":9999", "listen address")
	param := flag.String("query-param", "numero", "query parameter carrying the DNI")
	token := flag.String("token", os.Getenv("PADRON_REGISTRY_TOKEN"), "credential required from callers (empty disables the check)")
	flag.Parse()

	log, err := logger.New("info", "text")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(accesslog.Middleware(log))
	r.Handle("/*", mockregistry.Handler(*param, *token))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting mock registry", "addr", *addr, "query_param", *param, "token_required", *token != "")
	if err := httpserver.Run(ctx, httpserver.New(*addr, r), 5*time.Second); err != nil {
		log.Error("mock registry stopped", "error", err)
		os.Exit(1)
	}
}

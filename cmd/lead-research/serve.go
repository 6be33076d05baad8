// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/lead-research/internal/server"
	"github.com/pdiddy/lead-research/pkg/types"
)

// runServer hosts one orchestrator behind the chosen HTTP variant until
// SIGINT or SIGTERM.
func runServer(cmd *cobra.Command, variant types.ServerVariant) error {
	orch, err := newOrchestrator()
	if err != nil {
		return err
	}

	cfg := types.ServerConfig{
		Variant:         variant,
		Host:            viper.GetString("host"),
		Port:            viper.GetInt("port"),
		ShutdownTimeout: viper.GetDuration("shutdown_timeout"),
	}
	log := logger.Named(string(variant))

	var handler http.Handler
	switch variant {
	case types.VariantWebhook:
		handler = server.NewWebhook(orch, log)
	case types.VariantAPI:
		gin.SetMode(gin.ReleaseMode)
		handler = server.NewAPI(orch, log)
	default:
		return fmt.Errorf("unknown server variant %q", variant)
	}

	addr := server.Addr(cfg)
	fmt.Fprintf(os.Stderr, "Starting lead research %s server on %s\n", variant, addr)
	fmt.Fprintln(os.Stderr, "Endpoints:")
	fmt.Fprintln(os.Stderr, "  POST /research        - research a single lead {\"name\": ...}")
	if variant == types.VariantAPI {
		fmt.Fprintln(os.Stderr, "  POST /research/batch  - research several leads {\"names\": [...]}")
	} else {
		fmt.Fprintln(os.Stderr, "                          or several leads {\"names\": [...]}")
	}
	fmt.Fprintln(os.Stderr, "  GET  /health          - health check")

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("server starting", zap.String("addr", addr))
	return server.Serve(ctx, addr, handler, log, cfg.ShutdownTimeout)
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/milankmezic/Upload2Present/internal/compositor"
	"github.com/milankmezic/Upload2Present/internal/config"
	"github.com/milankmezic/Upload2Present/internal/logger"
	"github.com/milankmezic/Upload2Present/internal/metrics"
	"github.com/milankmezic/Upload2Present/internal/raster"
	"github.com/milankmezic/Upload2Present/internal/web"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	_ = logger.Init(logger.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})
	defer logger.Close()

	metrics.Init()

	rast := raster.Default()
	if !rast.Available() {
		log.Warn().Msg("Document rasterizer unavailable; PDFs will be listed on the summary slide")
	}

	comp := compositor.New(compositor.Dependencies{Rasterizer: rast})
	srv := web.New(comp, cfg.Server.MaxUploadMB)

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	mux.Handle("/metrics", metrics.Handler())

	httpSrv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	log.Info().Msg("Shutdown complete")
}

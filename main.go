package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"patientsheets/pkg/api"
	"patientsheets/pkg/config"

	log "github.com/sirupsen/logrus"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose logging")
	configFile := flag.String("config", "patientsheets.toml", "Path to the TOML config file")

	flag.Parse()
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.ConfigureLogging(*verbose)

	sessions := cfg.Sessions()
	if wb, ok := sessions.(interface{ Close() error }); ok {
		defer func() {
			if err := wb.Close(); err != nil {
				log.WithError(err).Error("Closing workbooks")
			}
		}()
	}

	srv := api.NewServer(sessions, api.Options{
		Table:          cfg.Table,
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})
	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           api.GetRouter(srv),
		ReadHeaderTimeout: 2 * time.Second,
	}
	go startServer(server)
	log.WithFields(log.Fields{
		"backend": cfg.Backend,
		"table":   cfg.Table,
	}).Info("Patient sheets service started")

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	<-signalChan
	log.Info("Signalled, shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Shutdown")
	}
}

func startServer(server *http.Server) {
	log.Infof("listening for HTTP on: %s", server.Addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal("ListenAndServeError: ", err)
	}
}

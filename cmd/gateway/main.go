package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	cartv1 "github.com/dwikikusuma/shoping-checkout/api/cartv1"
	catalogv1 "github.com/dwikikusuma/shoping-checkout/api/catalogv1"
	checkoutv1 "github.com/dwikikusuma/shoping-checkout/api/checkoutv1"
	orderv1 "github.com/dwikikusuma/shoping-checkout/api/orderv1"
	"github.com/dwikikusuma/shoping-checkout/pkg/config"
	"github.com/dwikikusuma/shoping-checkout/pkg/logger"
	"github.com/dwikikusuma/shoping-checkout/pkg/shutdown"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service:   "gateway",
		Env:       cfg.AppEnv,
		Level:     cfg.LogLevel,
		AddSource: true,
	})

	root := context.Background()
	ctx, cancel := shutdown.WithSignals(root, nil)
	defer cancel()

	conn, err := grpc.NewClient(cfg.APIAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Error("grpc client setup failed", slog.Any("err", err), slog.String("addr", cfg.APIAddr))
		os.Exit(1)
	}
	defer conn.Close()
	conn.Connect()

	h := &Handler{
		catalog:  catalogv1.NewCatalogServiceClient(conn),
		cart:     cartv1.NewCartServiceClient(conn),
		checkout: checkoutv1.NewCheckoutServiceClient(conn),
		orders:   orderv1.NewOrderServiceClient(conn),
		log:      log,
		ready: func() bool {
			return conn.GetState() == connectivity.Ready || conn.GetState() == connectivity.Idle
		},
	}

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("http server starting", slog.String("addr", addr), slog.String("api", cfg.APIAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", slog.Any("err", err))
	}

	wg.Wait()
	log.Info("bye")
}

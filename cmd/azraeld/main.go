// Command azraeld is the Azrael server process: it wires the Broker, the
// datastore, the worker pool, Leonard and the client RPC surface together
// and runs until signalled (§6). Grounded on aistore's cmd/aisnode/main.go:
// parse flags, build the pieces, start each on its own goroutine, block on an OS
// signal, then stop Leonard and shut down the metrics server.
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/olitheolix/azrael-sub000/broker"
	"github.com/olitheolix/azrael-sub000/cmn/config"
	"github.com/olitheolix/azrael-sub000/cmn/cos"
	"github.com/olitheolix/azrael-sub000/eventbus"
	"github.com/olitheolix/azrael-sub000/forcegrid"
	"github.com/olitheolix/azrael-sub000/leonard"
	"github.com/olitheolix/azrael-sub000/metrics"
	"github.com/olitheolix/azrael-sub000/store"
	"github.com/olitheolix/azrael-sub000/worker"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Parse(args)
	if err != nil {
		cos.Errorf("azraeld: %v", err)
		return 1
	}
	defer cos.Flush()

	st, err := store.Open(":memory:")
	if err != nil {
		cos.Errorf("azraeld: opening store: %v", err)
		return 1
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	met := metrics.New(reg)

	b := broker.New(st)
	bus := eventbus.New()
	grid := forcegrid.New()
	pool := worker.NewPool(cfg.WorkerPoolSize, nil)
	led := leonard.New(st, pool, bus, grid, cfg, met)
	srv := broker.NewServer(b, cfg.Port)

	metricsSrv := &http.Server{Addr: ":9090", Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}

	errCh := make(chan error, 2)
	go func() {
		if err := led.Run(); err != nil {
			errCh <- err
		}
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			cos.Warnf("azraeld: metrics server: %v", err)
		}
	}()

	if cfg.NoViewer {
		cos.Infof("azraeld: viewer bridge disabled")
	}
	cos.Infof("azraeld: listening on :%d (metrics on :9090)", cfg.Port)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		cos.Infof("azraeld: received %s, shutting down", sig)
	case err := <-errCh:
		cos.Errorf("azraeld: fatal: %v", err)
		led.Stop(err)
		return 1
	}

	led.Stop(nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(ctx); err != nil {
		cos.Warnf("azraeld: metrics server shutdown: %v", err)
	}
	return 0
}

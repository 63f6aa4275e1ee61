// applemuxd: USB device-management core for an Apple mobile device
// multiplexing daemon.
// Copyright (C) 2026
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"applemuxd/internal/config"
	"applemuxd/internal/diag"
	"applemuxd/internal/statusapi"
	"applemuxd/internal/usbcore"
)

// loggingSink is the default Sink: it logs arrivals, removals, and
// inbound byte counts. The real multiplex protocol, client dispatch, and
// pair-record storage this daemon exists to serve are deliberately out of
// this core's scope; production deployments would replace loggingSink
// with an implementation that frames and dispatches those bytes.
type loggingSink struct {
	logger *log.Logger
}

func (s *loggingSink) ByteSink(dev *usbcore.DeviceRecord, data []byte) {
	s.logger.Printf("device %02x:%02x: %d bytes in", dev.Bus(), dev.Address(), len(data))
}

func (s *loggingSink) DeviceAdded(dev *usbcore.DeviceRecord) bool {
	s.logger.Printf("device %02x:%02x serial=%s speed=%dbps: arrived", dev.Bus(), dev.Address(), dev.Serial(), dev.Speed())
	return false
}

func (s *loggingSink) DeviceRemoved(dev *usbcore.DeviceRecord) {
	s.logger.Printf("device %02x:%02x serial=%s: removed", dev.Bus(), dev.Address(), dev.Serial())
}

func main() {
	apiAddr := flag.String("api-addr", ":8473", "address for the debug status API")
	pumpInterval := flag.Duration("pump-interval", 50*time.Millisecond, "how often the event pump is driven between USB events")
	flag.Parse()

	tun := config.Load()
	logger := log.Default()

	sink := &loggingSink{logger: logger}
	core := usbcore.New(sink, usbcore.Options{
		DesiredMode:      tun.DesiredMode,
		PollInterval:     tun.PollInterval,
		ControlTimeout:   tun.ControlTimeout,
		DisconnectWaitMS: tun.DisconnectWaitMS,
		InboundTargets:   tun.InboundTargets,
		Logger:           logger,
	})

	if err := core.Init(); err != nil {
		log.Fatalf("usbcore init: %v", err)
	}

	diagCollector, err := diag.NewCollector()
	if err != nil {
		log.Fatalf("diag collector: %v", err)
	}
	logger.Printf("startup diagnostics: %+v", diagCollector.Collect())

	discoverCh := make(chan struct{}, 1)
	api := statusapi.New(core, diagCollector, discoverCh)

	srv := &http.Server{
		Addr:    *apiAddr,
		Handler: api.Router(),
	}

	go func() {
		logger.Printf("status API listening on %s", *apiAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("status API error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	stop := make(chan struct{})
	pumpDone := make(chan struct{})
	go func() {
		runEventPump(core, *pumpInterval, discoverCh, stop)
		close(pumpDone)
	}()

	<-quit
	logger.Println("shutting down")

	// Stop accepting and drain in-flight status API requests first: some
	// of them (Devices/Lookup) block waiting for the event pump to answer
	// a query, so the pump must keep running until they've all returned.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("status API shutdown error: %v", err)
	}

	close(stop)
	<-pumpDone
	core.Shutdown()
	logger.Println("stopped")
}

// runEventPump is the daemon's single event-pump goroutine: it owns the
// usbcore.Core exclusively, per the core's single-writer concurrency
// model, and is the only goroutine allowed to call its dispatch methods.
func runEventPump(core *usbcore.Core, interval time.Duration, discoverCh <-chan struct{}, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-discoverCh:
			if err := core.Discover(); err != nil {
				fmt.Fprintf(os.Stderr, "discover: %v\n", err)
			}
		default:
			if err := core.ProcessFor(interval); err != nil {
				fmt.Fprintf(os.Stderr, "process: %v\n", err)
			}
		}
	}
}

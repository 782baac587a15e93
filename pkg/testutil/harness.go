// Package testutil provides testing utilities for the TV gateway.
// This file provides a TestEnv wiring the full gateway stack against a
// mock TV for integration tests.
package testutil

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"tvremote/internal/api"
	"tvremote/internal/bravia"
	"tvremote/internal/catalog"
	"tvremote/internal/clock"
	"tvremote/internal/config"
	"tvremote/internal/metrics"
	"tvremote/internal/reconciler"
	"tvremote/internal/ws"
)

// CountingWaker stands in for the wake-signal sender; integration
// tests only need to observe that the signal was requested.
type CountingWaker struct {
	mu    sync.Mutex
	count int
}

func (c *CountingWaker) Wake() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
	return nil
}

// Count reports how many wake signals were requested.
func (c *CountingWaker) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// TestEnv is a complete gateway wired against a mock TV: real protocol
// client, real reconciler on a mock clock, real router.
type TestEnv struct {
	TV         *MockTVServer
	Client     *bravia.HTTPClient
	Reconciler *reconciler.Manager
	Hub        *ws.Hub
	Waker      *CountingWaker
	Clock      *clock.MockClock
	Handler    http.Handler
	Logger     *zap.Logger

	server *api.Server
}

// NewTestEnv starts a mock TV and assembles the gateway around it.
//
// Example usage:
//
//	env := testutil.NewTestEnv(t, "test_psk", nil)
//	defer env.Cleanup()
//
//	env.TV.SetPower("active")
//	resp := httptest.NewRecorder()
//	env.Handler.ServeHTTP(resp, httptest.NewRequest("GET", "/api/status", nil))
func NewTestEnv(psk string, apps []config.Application) *TestEnv {
	logger, _ := zap.NewDevelopment()

	tv := NewMockTVServer(psk)
	client := bravia.NewHTTPClient(tv.URL(), psk, logger)
	clk := clock.NewMockClock(time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC))
	manager := reconciler.NewManager(client, clk, logger, 10*time.Second)
	hub := ws.NewHub(logger)
	collector := metrics.NewCollector()
	waker := &CountingWaker{}

	manager.Subscribe(func(s reconciler.Snapshot) {
		hub.Broadcast(s)
		collector.Observe(s)
	})

	srv := api.NewServer(api.Options{
		Client:       client,
		Waker:        waker,
		Reconciler:   manager,
		Hub:          hub,
		Metrics:      collector.Handler(),
		Applications: apps,
		Icons:        catalog.NewIconIndex(),
		Port:         0,
		Logger:       logger,
	})

	return &TestEnv{
		TV:         tv,
		Client:     client,
		Reconciler: manager,
		Hub:        hub,
		Waker:      waker,
		Clock:      clk,
		Handler:    srv.Handler(),
		Logger:     logger,
		server:     srv,
	}
}

// Cleanup stops the mock TV.
func (e *TestEnv) Cleanup() {
	e.TV.Stop()
}

// Package api exposes the relay's HTTP surface: liveness, the active-stream
// listing, Prometheus metrics, and the WebSocket upgrade endpoint.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/live_relay/internal/signaling"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StreamService is the read-only view of the signaling hub the API needs.
type StreamService interface {
	Snapshot() []signaling.StreamSession
}

// NewServer builds the HTTP handler tree.
func NewServer(svc StreamService, wsHandler, metricsHandler http.Handler) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Live Relay API", "1.0.0")
	api := humachi.New(router, cfg)

	router.Handle("/ws", wsHandler)
	router.Handle("/metrics", metricsHandler)

	type healthOutput struct {
		Body struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "healthz", Method: http.MethodGet, Path: "/healthz", Summary: "Liveness check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			out.Body.Timestamp = time.Now().UTC()
			return out, nil
		})

	type streamListOutput struct {
		Body struct {
			Streams []signaling.StreamSession `json:"streams"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-streams", Method: http.MethodGet, Path: "/api/v1/streams", Summary: "List active streams", Tags: []string{"Streams"}},
		func(ctx context.Context, input *struct{}) (*streamListOutput, error) {
			out := &streamListOutput{}
			out.Body.Streams = svc.Snapshot()
			return out, nil
		})

	return router
}

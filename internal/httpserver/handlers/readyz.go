package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/launchpane/querybox/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Redis string `json:"redis"`
}

func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		redisStatus := "ok"
		ready := true
		if d.RedisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			defer cancel()

			if err := d.RedisClient.Ping(ctx).Err(); err != nil {
				redisStatus = err.Error()
				ready = false
			}
		}

		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(readyzResponse{
			Ready: ready,
			Redis: redisStatus,
		})
	}
}

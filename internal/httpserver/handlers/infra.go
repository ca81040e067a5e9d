package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/launchpane/querybox/internal/httpserver/deps"
)

type componentStatus struct {
	OK            bool   `json:"ok"`
	EntriesLoaded *int   `json:"entries_loaded,omitempty"`
	LastReload    string `json:"last_reload,omitempty"`
	State         string `json:"state,omitempty"`
	Error         string `json:"error,omitempty"`
}

type infraResponse struct {
	UptimeSeconds float64                    `json:"uptime_seconds"`
	Components    map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		curatedCount := d.MemoryIndex.CuratedCount()
		lastReload := d.MemoryIndex.LastCuratedReload()
		lastReloadStr := "never"
		if !lastReload.IsZero() {
			lastReloadStr = lastReload.Format("2006-01-02 15:04:05")
		}

		components := map[string]componentStatus{
			"curated": {
				OK:            curatedCount > 0,
				EntriesLoaded: &curatedCount,
				LastReload:    lastReloadStr,
			},
			"redis": checkRedis(r.Context(), d),
		}
		if d.Orchestrator != nil {
			components["chat"] = componentStatus{
				OK:    true,
				State: string(d.Orchestrator.State()),
			}
		}

		_ = json.NewEncoder(w).Encode(infraResponse{
			UptimeSeconds: time.Since(d.StartTime).Seconds(),
			Components:    components,
		})
	}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{OK: false, Error: "not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{OK: false, Error: err.Error()}
	}
	return componentStatus{OK: true}
}

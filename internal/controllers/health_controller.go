package controllers

import (
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"musicwordle/internal/services"
	"musicwordle/internal/structures"
)

const (
	healthOK       = "ok"
	healthDegraded = "degraded"

	catalogLive     = "spotify"
	catalogFallback = "fallback"
)

type HealthController struct {
	service   services.GameServiceInterface
	storage   string
	catalog   string
	startTime time.Time
	now       func() time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Storage       string  `json:"storage"`
	Catalog       string  `json:"catalog"`
	ActiveGames   int     `json:"active_games"`
	Error         string  `json:"error,omitempty"`
}

func NewHealthController(conf *structures.Config, service services.GameServiceInterface) *HealthController {
	catalog := catalogFallback
	if conf.Spotify.Enabled() {
		catalog = catalogLive
	}
	return &HealthController{
		service:   service,
		storage:   conf.Storage.Driver,
		catalog:   catalog,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Health answers GET and HEAD. The store is probed through the active game
// count; when that fails the status is "degraded" with a 503.
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := hc.now().Sub(hc.startTime)
	resp := healthResponse{
		Status:        healthOK,
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		Storage:       hc.storage,
		Catalog:       hc.catalog,
	}
	code := http.StatusOK
	if active, err := hc.service.ActiveGames(r.Context()); err != nil {
		resp.Status = healthDegraded
		resp.Error = "game store unavailable"
		code = http.StatusServiceUnavailable
	} else {
		resp.ActiveGames = active
	}

	body, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(body)
}

func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	return fmt.Sprintf("%dh%dm%ds", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
}

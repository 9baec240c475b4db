package controllers

import (
	"context"
	"fmt"
	json "github.com/goccy/go-json"
	"net/http"
	"time"
)

// EntryCounter is the part of the work diary service health reporting needs.
type EntryCounter interface {
	Count(ctx context.Context) (int64, error)
}

type HealthController struct {
	counter   EntryCounter
	startTime time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Entries       int64   `json:"entries"`
}

func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(hc.startTime)
	resp := healthResponse{
		Status:        "ok",
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
	}

	status := http.StatusOK
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	count, err := hc.counter.Count(ctx)
	if err != nil {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	resp.Entries = count

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

func NewHealthController(counter EntryCounter) *HealthController {
	return &HealthController{
		counter:   counter,
		startTime: time.Now(),
	}
}

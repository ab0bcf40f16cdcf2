package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/dataprocessing"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts"
)

// Health states
const (
	StatusOK       = "ok"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
	StatusAlive    = "alive"
)

// DatasetProber loads the dataset for readiness checks
type DatasetProber interface {
	Snapshot(ctx context.Context) (*dataprocessing.Snapshot, error)
	CacheStats() dataprocessing.CacheStats
}

// ClientCounter reports connected live clients
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	dataset   DatasetProber
	clients   ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// NewHealthService creates a health service. clients may be nil.
func NewHealthService(dataset DatasetProber, clients ClientCounter, logger *slog.Logger) *HealthService {
	return &HealthService{
		dataset:   dataset,
		clients:   clients,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
	}
}

// ReadinessCheck reports ready only when the dataset loads
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Services: map[string]ServiceHealth{
			"dataset":   hs.checkDataset(ctx),
			"websocket": hs.checkWebSocket(),
		},
	}

	for _, sh := range status.Services {
		if sh.Status != StatusReady {
			status.Status = StatusNotReady
			break
		}
	}

	if status.Status != StatusReady {
		hs.logger.WarnContext(ctx, "Readiness check failed",
			slog.String("dataset", status.Services["dataset"].Message))
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now().UTC(),
		Version:   contracts.Version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() contracts.VersionInfo {
	return contracts.GetVersionInfo()
}

func (hs *HealthService) checkDataset(ctx context.Context) ServiceHealth {
	snap, err := hs.dataset.Snapshot(ctx)
	if err != nil {
		return ServiceHealth{Status: StatusNotReady, Message: err.Error()}
	}

	return ServiceHealth{
		Status:  StatusReady,
		Message: "dataset loaded",
		Details: map[string]interface{}{
			"rows":          snap.Info.Rows,
			"last_quarter":  snap.Info.LastQuarter,
			"cache_entries": hs.dataset.CacheStats().Entries,
		},
	}
}

func (hs *HealthService) checkWebSocket() ServiceHealth {
	if hs.clients == nil {
		return ServiceHealth{Status: StatusReady, Message: "websocket disabled"}
	}
	return ServiceHealth{
		Status:  StatusReady,
		Details: map[string]int{"clients": hs.clients.ClientCount()},
	}
}

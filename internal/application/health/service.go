package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"meterinstall-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DBPinger is satisfied by *sql.DB. If nil, database is reported as disconnected.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// CollectResult is the /health/json payload without the service name.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	AllocMB     int `json:"allocMb"`
	HeapInUseMB int `json:"heapInUseMb"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime interface{} `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

func ping(ctx context.Context, fn func(context.Context) error) DepStatus {
	start := time.Now()
	if err := fn(ctx); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}

// CollectHealth pings the database and Redis and reads the request counters kept by HealthMarker.
func CollectHealth(ctx context.Context, rdb *redis.Client, db DBPinger) CollectResult {
	result := CollectResult{Dependencies: map[string]DepStatus{
		"database": {Status: "disconnected"},
		"redis":    {Status: "disconnected"},
	}}
	if db != nil {
		result.Dependencies["database"] = ping(ctx, db.PingContext)
	}

	stats := TrafficInfo{AvgResponseTime: 0, SuccessRate: "100"}
	startTimeMs := time.Now().UnixMilli()
	if rdb != nil {
		result.Dependencies["redis"] = ping(ctx, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	if result.Dependencies["redis"].Status == "connected" {
		totalReq, _ := rdb.Get(ctx, middleware.KeyReqTotal).Result()
		totalErr, _ := rdb.Get(ctx, middleware.KeyReqErrors).Result()
		totalTime, _ := rdb.Get(ctx, middleware.KeyResTime).Result()
		resCount, _ := rdb.Get(ctx, middleware.KeyResCount).Result()
		startTimeStr, _ := rdb.Get(ctx, middleware.KeyStartTime).Result()
		lastReqStr, _ := rdb.Get(ctx, middleware.KeyLastReq).Result()

		if t, err := strconv.ParseInt(startTimeStr, 10, 64); err == nil {
			startTimeMs = t
		} else {
			rdb.Set(ctx, middleware.KeyStartTime, startTimeMs, 0)
		}

		stats.TotalRequests, _ = strconv.Atoi(totalReq)
		stats.FailedCount, _ = strconv.Atoi(totalErr)
		stats.SuccessCount = stats.TotalRequests - stats.FailedCount
		if stats.TotalRequests > 0 {
			stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
		}
		timeSum, _ := strconv.ParseFloat(totalTime, 64)
		if countSum, _ := strconv.Atoi(resCount); countSum > 0 {
			stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(countSum), 'f', 2, 64)
		}
		if lastReqStr != "" {
			var lastReq map[string]interface{}
			_ = json.Unmarshal([]byte(lastReqStr), &lastReq)
			stats.LastRequest = lastReq
		}
	}
	result.Traffic = stats

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptimeSec := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptimeSec < 0 {
		uptimeSec = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptimeSec,
		Memory:        MemoryInfo{AllocMB: int(m.Alloc / 1024 / 1024), HeapInUseMB: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	result.Status = "issue"
	if result.Dependencies["database"].Status == "connected" && result.Dependencies["redis"].Status == "connected" {
		result.Status = "ok"
	}
	return result
}

package health

import (
	"context"
	"encoding/json"
	"runtime"
	"strconv"
	"time"

	"stock-tracker-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// ServiceName identifies this API in health output.
const ServiceName = "stock-tracker-api"

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// CollectResult is the payload of /health/json and the dashboard.
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
	LoadAvg       []string   `json:"loadAvg"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

// MemoryInfo is in MB, except SystemUsedPercent.
type MemoryInfo struct {
	Alloc             int     `json:"alloc"`
	HeapUsed          int     `json:"heapUsed"`
	Sys               int     `json:"sys"`
	SystemUsedPercent float64 `json:"systemUsedPercent"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime string      `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// processStart backs uptime when Redis holds no start time.
var processStart = time.Now()

// CollectHealth pings the database and Redis and reads request stats from Redis.
// Status is "ok" when the database answers and Redis, if configured, does too.
func CollectHealth(ctx context.Context, rdb *redis.Client, db DBPinger) CollectResult {
	result := CollectResult{Dependencies: make(map[string]DepStatus)}

	dbDep := DepStatus{Status: "disconnected"}
	if db != nil {
		dbDep = ping(db.Ping)
	}
	result.Dependencies["database"] = dbDep

	startTime := processStart
	result.Traffic = TrafficInfo{AvgResponseTime: "0", SuccessRate: "100"}
	redisDep := DepStatus{Status: "disabled"}
	if rdb != nil {
		redisDep = ping(func() error { return rdb.Ping(ctx).Err() })
		if redisDep.Status == "connected" {
			startTime = readTraffic(ctx, rdb, &result.Traffic, startTime)
		}
	}
	result.Dependencies["redis"] = redisDep

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := int64(time.Since(startTime).Seconds())
	if uptime < 0 {
		uptime = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptime,
		Memory: MemoryInfo{
			Alloc:    int(m.Alloc >> 20),
			HeapUsed: int(m.HeapInuse >> 20),
			Sys:      int(m.Sys >> 20),
		},
		Goroutines: runtime.NumGoroutine(),
		LoadAvg:    loadAvg(),
		Platform:   runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:  runtime.Version(),
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		result.Runtime.Memory.SystemUsedPercent = float64(int(vm.UsedPercent*10)) / 10
	}

	result.Status = "issue"
	if dbDep.Status == "connected" && redisDep.Status != "error" {
		result.Status = "ok"
	}
	return result
}

// loadAvg is the 1/5/15 minute load; zeros where the platform has none.
func loadAvg() []string {
	out := []string{"0.00", "0.00", "0.00"}
	avg, err := load.Avg()
	if err != nil {
		return out
	}
	for i, v := range []float64{avg.Load1, avg.Load5, avg.Load15} {
		out[i] = strconv.FormatFloat(v, 'f', 2, 64)
	}
	return out
}

func ping(fn func() error) DepStatus {
	start := time.Now()
	if err := fn(); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}

// readTraffic fills stats from the HealthMarker keys and returns the recorded start time,
// seeding it on first use.
func readTraffic(ctx context.Context, rdb *redis.Client, stats *TrafficInfo, fallback time.Time) time.Time {
	vals, err := rdb.MGet(ctx,
		middleware.KeyReqTotal,
		middleware.KeyReqErrors,
		middleware.KeyResTime,
		middleware.KeyResCount,
		middleware.KeyStartTime,
		middleware.KeyLastReq,
	).Result()
	if err != nil {
		return fallback
	}
	str := func(i int) string {
		s, _ := vals[i].(string)
		return s
	}

	stats.TotalRequests, _ = strconv.Atoi(str(0))
	stats.FailedCount, _ = strconv.Atoi(str(1))
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(str(2), 64)
	if count, _ := strconv.Atoi(str(3)); count > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(count), 'f', 2, 64)
	}
	if s := str(5); s != "" {
		var lastReq map[string]interface{}
		if json.Unmarshal([]byte(s), &lastReq) == nil {
			stats.LastRequest = lastReq
		}
	}

	if ms, err := strconv.ParseInt(str(4), 10, 64); err == nil {
		return time.UnixMilli(ms)
	}
	rdb.SetNX(ctx, middleware.KeyStartTime, fallback.UnixMilli(), 0)
	return fallback
}

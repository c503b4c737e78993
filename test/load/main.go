package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Request payload structure
type DeliveryPayload struct {
	Channel        string `json:"channel"`
	ToAddr         string `json:"to_addr"`
	IdempotencyKey string `json:"idempotency_key"`
}

// Test configuration
type LoadTestConfig struct {
	URL               string
	TenantID          string
	RequestsPerSecond int
	DurationSeconds   int
	ConcurrentWorkers int
}

// Stats tracking
type Stats struct {
	successCount  atomic.Int64
	errorCount    atomic.Int64
	responseTimes []float64
	mu            sync.Mutex
}

func (s *Stats) addResponseTime(duration float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responseTimes = append(s.responseTimes, duration)
}

func (s *Stats) getResponseTimes() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	times := make([]float64, len(s.responseTimes))
	copy(times, s.responseTimes)
	return times
}

func sendRequest(client *http.Client, config LoadTestConfig, payload []byte, stats *Stats) {
	start := time.Now()

	req, err := http.NewRequest("POST", config.URL, bytes.NewBuffer(payload))
	if err != nil {
		stats.errorCount.Add(1)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", config.TenantID)

	resp, err := client.Do(req)
	if err != nil {
		stats.errorCount.Add(1)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	stats.addResponseTime(time.Since(start).Seconds() * 1000)

	if resp.StatusCode == http.StatusCreated {
		stats.successCount.Add(1)
	} else {
		stats.errorCount.Add(1)
	}
}

func randomPayload(runID string, rng *rand.Rand) []byte {
	n := rng.Intn(100_000)
	key := fmt.Sprintf("%s-%d", runID, n)
	p := DeliveryPayload{
		Channel:        []string{"email", "whatsapp", "x"}[rng.Intn(3)],
		ToAddr:         fmt.Sprintf("load-%d@example.com", n),
		IdempotencyKey: key,
	}
	b, _ := json.Marshal(p)
	return b
}

func runLoadTest(config LoadTestConfig) {
	fmt.Printf("Starting load test against %s\n", config.URL)
	fmt.Printf("Rate: %d req/s, duration: %ds, workers: %d\n",
		config.RequestsPerSecond, config.DurationSeconds, config.ConcurrentWorkers)

	stats := &Stats{}
	client := &http.Client{Timeout: 10 * time.Second}
	runID := fmt.Sprintf("load-%d", time.Now().Unix())

	jobs := make(chan []byte, config.RequestsPerSecond)
	var wg sync.WaitGroup

	for i := 0; i < config.ConcurrentWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for payload := range jobs {
				sendRequest(client, config, payload, stats)
			}
		}()
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(time.Second / time.Duration(config.RequestsPerSecond))
	defer ticker.Stop()

	deadline := time.Now().Add(time.Duration(config.DurationSeconds) * time.Second)
	for time.Now().Before(deadline) {
		<-ticker.C
		jobs <- randomPayload(runID, rng)
	}
	close(jobs)
	wg.Wait()

	printResults(stats)
}

func printResults(stats *Stats) {
	times := stats.getResponseTimes()
	sort.Float64s(times)

	percentile := func(p float64) float64 {
		if len(times) == 0 {
			return 0
		}
		idx := int(float64(len(times)) * p)
		if idx >= len(times) {
			idx = len(times) - 1
		}
		return times[idx]
	}

	fmt.Println("\n=== Results ===")
	fmt.Printf("Created:  %d\n", stats.successCount.Load())
	fmt.Printf("Errors:   %d\n", stats.errorCount.Load())
	fmt.Printf("p50: %.1fms  p95: %.1fms  p99: %.1fms\n",
		percentile(0.50), percentile(0.95), percentile(0.99))
}

func main() {
	config := LoadTestConfig{
		URL:               getEnv("TARGET_URL", "http://localhost:8080/api/v1/deliveries"),
		TenantID:          getEnv("TENANT_ID", "1"),
		RequestsPerSecond: getEnvInt("RPS", 100),
		DurationSeconds:   getEnvInt("DURATION", 30),
		ConcurrentWorkers: getEnvInt("WORKERS", 16),
	}
	runLoadTest(config)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

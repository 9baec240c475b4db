package main

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

const (
	baseURL      = "http://127.0.0.1:5000"
	numWorkers   = 20
	testDuration = 10 * time.Second
	numUsers     = 50
	numProjects  = 5
	numDays      = 7
)

var httpClient = &http.Client{
	Timeout: 5 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 200,
		IdleConnTimeout:     30 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	},
}

type result struct {
	endpoint string
	status   int
	latency  time.Duration
	err      bool
}

type stats struct {
	count     int64
	errors    int64
	latencies []time.Duration
}

func main() {
	fmt.Println("=== Work Diary Load Test ===")
	fmt.Printf("Workers: %d | Duration: %s\n", numWorkers, testDuration)
	fmt.Printf("Users: %d | Projects: %d | Days: %d\n\n", numUsers, numProjects, numDays)

	// Wait for server
	fmt.Print("Waiting for server... ")
	for i := 0; i < 30; i++ {
		resp, err := httpClient.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			break
		}
		if i == 29 {
			fmt.Println("FAILED: server not responding")
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("OK")

	// Phase 1: Seed data with POST requests
	fmt.Println("\n--- Phase 1: Seeding entries (POST /workdiary) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		return doPost(rng)
	})

	// Phase 2: Mixed read/write load
	fmt.Println("\n--- Phase 2: Mixed load (60% POST, 40% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.60:
			return doPost(rng)
		case r < 0.90:
			return doGetByUserDate(rng)
		case r < 0.95:
			return doGetAll()
		default:
			return doGetHealth()
		}
	})

	// Phase 3: Read-heavy load, mostly served from the query cache
	fmt.Println("\n--- Phase 3: Read-heavy load (5% POST, 95% GET) ---")
	runPhase(testDuration, func(rng *rand.Rand) result {
		r := rng.Float64()
		switch {
		case r < 0.05:
			return doPost(rng)
		case r < 0.85:
			return doGetByUserDate(rng)
		default:
			return doGetAll()
		}
	})
}

func runPhase(duration time.Duration, workFn func(rng *rand.Rand) result) {
	results := make(chan result, 10000)
	var wg sync.WaitGroup
	var totalOps atomic.Int64
	stop := make(chan struct{})

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for {
				select {
				case <-stop:
					return
				default:
					r := workFn(rng)
					totalOps.Add(1)
					results <- r
				}
			}
		}(rand.Int63() + int64(i))
	}

	allResults := make(map[string]*stats)
	done := make(chan struct{})
	go func() {
		for r := range results {
			s, ok := allResults[r.endpoint]
			if !ok {
				s = &stats{}
				allResults[r.endpoint] = s
			}
			s.count++
			if r.err {
				s.errors++
			}
			s.latencies = append(s.latencies, r.latency)
		}
		close(done)
	}()

	time.Sleep(duration)
	close(stop)
	wg.Wait()
	close(results)
	<-done

	printResults(allResults, duration)
}

func printResults(allResults map[string]*stats, duration time.Duration) {
	var totalOps int64
	var totalErrors int64

	endpoints := make([]string, 0, len(allResults))
	for ep := range allResults {
		endpoints = append(endpoints, ep)
	}
	sort.Strings(endpoints)

	fmt.Printf("\n  %-22s %8s %6s %10s %10s %10s %10s\n",
		"Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Println("  " + strings.Repeat("-", 88))

	for _, ep := range endpoints {
		s := allResults[ep]
		totalOps += s.count
		totalErrors += s.errors

		sort.Slice(s.latencies, func(i, j int) bool {
			return s.latencies[i] < s.latencies[j]
		})

		avg := avgDuration(s.latencies)
		p50 := percentile(s.latencies, 0.50)
		p95 := percentile(s.latencies, 0.95)
		p99 := percentile(s.latencies, 0.99)

		fmt.Printf("  %-22s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors, fmtDur(avg), fmtDur(p50), fmtDur(p95), fmtDur(p99))
	}

	rps := float64(totalOps) / duration.Seconds()
	fmt.Println("  " + strings.Repeat("-", 88))
	fmt.Printf("  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f\n",
		totalOps, totalErrors, float64(totalErrors)/float64(totalOps)*100, rps)
}

// tinyPNG is a valid 1x1 PNG sent as the inline screenshot.
var tinyPNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="

func send(label, method, url string, body io.Reader, contentType string, want int) result {
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return result{label, 0, 0, true}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	start := time.Now()
	resp, err := httpClient.Do(req)
	lat := time.Since(start)
	if err != nil {
		return result{label, 0, lat, true}
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return result{label, resp.StatusCode, lat, resp.StatusCode != want}
}

func doPost(rng *rand.Rand) result {
	shot := time.Date(2024, 3, 1+rng.Intn(numDays), rng.Intn(24), rng.Intn(60), 0, 0, time.UTC)
	body := map[string]interface{}{
		"projectID":           fmt.Sprintf("p%d", rng.Intn(numProjects)),
		"userID":              fmt.Sprintf("u%d", rng.Intn(numUsers)),
		"taskID":              fmt.Sprintf("t%d", rng.Intn(10)),
		"screenshotTimeStamp": shot.Format(time.RFC3339),
		"calcTimeStamp":       shot.Format("2006-01-02 15:04:05"),
		"mouseClicks":         rng.Intn(200),
		"keyboardClicks":      rng.Intn(500),
		"activeFlag":          rng.Float64() < 0.8,
		"activeMins":          rng.Intn(11),
		"activeJSON":          map[string]interface{}{"apps": []string{"editor", "browser"}},
	}
	if rng.Float64() < 0.5 {
		body["imageURL"] = tinyPNG
	}

	data, _ := json.Marshal(body)
	return send("POST /workdiary", http.MethodPost, baseURL+"/workdiary", bytes.NewReader(data), "application/json", http.StatusCreated)
}

func doGetByUserDate(rng *rand.Rand) result {
	url := fmt.Sprintf("%s/workdiary?userID=u%d&date=2024-03-%02d", baseURL, rng.Intn(numUsers), 1+rng.Intn(numDays))
	return send("GET /workdiary", http.MethodGet, url, nil, "", http.StatusOK)
}

func doGetAll() result {
	return send("GET /workdiary/all", http.MethodGet, baseURL+"/workdiary/all", nil, "", http.StatusOK)
}

func doGetHealth() result {
	return send("GET /health", http.MethodGet, baseURL+"/health", nil, "", http.StatusOK)
}

func avgDuration(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	idx := int(float64(len(d)) * p)
	if idx >= len(d) {
		idx = len(d) - 1
	}
	return d[idx]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

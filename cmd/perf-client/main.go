package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// PerfResult gathers aggregated metrics for the test run.
// Atomic counters are used to avoid lock contention on hot paths.
// LatencySum & P95Latency are in nanoseconds.
//
// P95Latency is maintained via a lightweight reservoir sampler.
type PerfResult struct {
	TotalRequests int64
	SuccessCount  int64
	DeclinedCount int64
	ErrorCount    int64
	LatencySum    int64
	P95Latency    int64
}

const (
	fixedWorkers   = 50
	fixedRPSTarget = 700
	fixedDuration  = 30 * time.Second
	defaultTimeout = 30 * time.Second

	baseURL     = "http://localhost:8080"
	cardNumber  = "5555555555554444"
	ticketType  = "SINGLE"
	stationName = "North"
)

type station struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	SalesCount int64  `json:"sales_count"`
}

func main() {
	rps := fixedRPSTarget
	duration := fixedDuration
	workers := fixedWorkers

	transport := &http.Transport{
		MaxIdleConns:        workers * 4,
		MaxIdleConnsPerHost: workers * 4,
		IdleConnTimeout:     90 * time.Second,
	}
	httpClient := &http.Client{
		Transport: transport,
		Timeout:   defaultTimeout,
	}

	target, err := findStation(httpClient, stationName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to find station %q: %v\n", stationName, err)
		os.Exit(1)
	}
	salesBefore := target.SalesCount

	fmt.Println("==========================================")
	fmt.Println("Ticketing purchase load test (uniform)")
	fmt.Println("==========================================")
	fmt.Printf("Station     : %s (id %d)\n", target.Name, target.ID)
	fmt.Printf("Target RPS  : %d\n", rps)
	fmt.Printf("Duration    : %v\n", duration)
	fmt.Println("==========================================")

	burst := rps / workers
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var result PerfResult
	var wg sync.WaitGroup

	// latencyChan collects latencies for P95 estimation.
	latencyChan := make(chan time.Duration, 4096)
	go trackP95(latencyChan, &result)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if err := limiter.Wait(ctx); err != nil { // context cancelled → exit
					return
				}
				doRequest(httpClient, target.ID, &result, latencyChan)
			}
		}()
	}

	start := time.Now()
	<-ctx.Done() // wait for duration

	wg.Wait()
	close(latencyChan)

	totalDur := time.Since(start)

	fmt.Println("==========================================")
	fmt.Println("Results")
	fmt.Println("==========================================")
	fmt.Printf("Elapsed            : %.2fs\n", totalDur.Seconds())
	fmt.Printf("Total requests     : %d\n", result.TotalRequests)
	fmt.Printf("Committed sales    : %d\n", result.SuccessCount)
	fmt.Printf("Declined (funds)   : %d\n", result.DeclinedCount)
	fmt.Printf("Errors             : %d\n", result.ErrorCount)

	actualRPS := float64(result.SuccessCount) / totalDur.Seconds()

	var avgLatency time.Duration
	if result.SuccessCount > 0 {
		avgLatency = time.Duration(result.LatencySum / result.SuccessCount)
	}

	fmt.Printf("Actual RPS         : %.2f\n", actualRPS)
	fmt.Printf("Avg latency        : %v\n", avgLatency)
	fmt.Printf("P95 latency        : %v\n", time.Duration(result.P95Latency))
	fmt.Println("==========================================")

	if err := verifySalesCount(httpClient, target.ID, salesBefore, result.SuccessCount); err != nil {
		fmt.Printf("consistency check FAILED: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("consistency check passed: sales counter matches committed sales")
}

// findStation resolves the load-test station by name.
func findStation(httpClient *http.Client, name string) (*station, error) {
	resp, err := httpClient.Get(baseURL + "/v1/stations")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var stations []station
	if err := json.NewDecoder(resp.Body).Decode(&stations); err != nil {
		return nil, err
	}
	for i := range stations {
		if stations[i].Name == name {
			return &stations[i], nil
		}
	}
	return nil, fmt.Errorf("station %q not listed", name)
}

// doRequest performs a single purchase and collects metrics.
func doRequest(httpClient *http.Client, stationID int64, result *PerfResult, latencyChan chan<- time.Duration) {
	body, _ := json.Marshal(map[string]interface{}{
		"station_id":  stationID,
		"type":        ticketType,
		"card_number": cardNumber,
	})

	start := time.Now()
	atomic.AddInt64(&result.TotalRequests, 1)

	resp, err := httpClient.Post(baseURL+"/v1/purchase", "application/json", bytes.NewReader(body))
	latency := time.Since(start)

	if err != nil {
		atomic.AddInt64(&result.ErrorCount, 1)
		return
	}
	resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated:
		atomic.AddInt64(&result.SuccessCount, 1)
		atomic.AddInt64(&result.LatencySum, latency.Nanoseconds())
		select {
		case latencyChan <- latency:
		default:
		}
	case http.StatusPaymentRequired:
		// Expected once the test card runs dry.
		atomic.AddInt64(&result.DeclinedCount, 1)
	default:
		atomic.AddInt64(&result.ErrorCount, 1)
	}
}

// trackP95 maintains a best-effort rolling P95 latency estimation.
func trackP95(latencies <-chan time.Duration, result *PerfResult) {
	const size = 1000
	buf := make([]int64, 0, size)

	for lat := range latencies {
		if len(buf) < size {
			buf = append(buf, lat.Nanoseconds())
		} else {
			// Replace random element (simple reservoir sampling)
			if idx := time.Now().UnixNano() % int64(size); idx < int64(size/10) {
				buf[idx] = lat.Nanoseconds()
			}
		}

		// Update P95 periodically
		if len(buf) >= 100 && len(buf)%100 == 0 {
			copyBuf := make([]int64, len(buf))
			copy(copyBuf, buf)
			quickSort(copyBuf)
			p95Index := int(float64(len(copyBuf)) * 0.95)
			if p95Index >= len(copyBuf) {
				p95Index = len(copyBuf) - 1
			}
			atomic.StoreInt64(&result.P95Latency, copyBuf[p95Index])
		}
	}
}

// quickSort sorts the array in ascending order
func quickSort(arr []int64) {
	if len(arr) < 2 {
		return
	}

	left, right := 0, len(arr)-1
	pivot := len(arr) / 2

	arr[pivot], arr[right] = arr[right], arr[pivot]

	for i := range arr {
		if arr[i] < arr[right] {
			arr[left], arr[i] = arr[i], arr[left]
			left++
		}
	}

	arr[left], arr[right] = arr[right], arr[left]

	quickSort(arr[:left])
	quickSort(arr[left+1:])
}

// verifySalesCount checks that the station's sales counter advanced by
// exactly the number of committed purchases.
func verifySalesCount(httpClient *http.Client, stationID, salesBefore, committed int64) error {
	resp, err := httpClient.Get(baseURL + "/v1/stations")
	if err != nil {
		return fmt.Errorf("failed to list stations: %w", err)
	}
	defer resp.Body.Close()

	var stations []station
	if err := json.NewDecoder(resp.Body).Decode(&stations); err != nil {
		return fmt.Errorf("failed to decode stations: %w", err)
	}

	for _, s := range stations {
		if s.ID != stationID {
			continue
		}
		delta := s.SalesCount - salesBefore
		fmt.Printf("Sales before       : %d\n", salesBefore)
		fmt.Printf("Sales after        : %d\n", s.SalesCount)
		fmt.Printf("Committed (client) : %d\n", committed)
		if delta != committed {
			return fmt.Errorf("counter delta %d != committed %d", delta, committed)
		}
		return nil
	}
	return fmt.Errorf("station %d not found after test", stationID)
}

// Traffic simulator for exercising a running FraudLens instance.
//
// Usage:
//   go run cmd/simulator/main.go -url http://localhost:8000 -count 100
//
// This tool:
//   1. Generates synthetic transaction records over the full schema
//   2. Sends each record to POST /predict
//   3. Reports label distribution, probability stats, and latency
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// PredictResponse is the FraudLens API response format.
type PredictResponse struct {
	FraudProbability float64 `json:"fraud_probability"`
	Prediction       string  `json:"prediction"`
	Review           *bool   `json:"review,omitempty"`
}

// riskProfiles bound the synthetic PCA feature range. Wider ranges
// push records further from the background set and raise scores.
var riskProfiles = map[string]float64{
	"low":    1,
	"medium": 3,
	"high":   6,
}

// Stats tracks simulation results.
type Stats struct {
	Total          int64
	Fraud          int64
	Legit          int64
	Flagged        int64
	Errors         int64
	ProbabilitySum uint64 // math.Float64bits accumulation via CAS
	LatencyMs      int64
}

func main() {
	baseURL := flag.String("url", "http://localhost:8000", "FraudLens base URL")
	count := flag.Int("count", 20, "Number of transactions to send")
	delay := flag.Duration("delay", 0, "Delay between sends per worker")
	workers := flag.Int("workers", 1, "Number of concurrent workers")
	profile := flag.String("profile", "medium", "Risk profile: low, medium, high")
	seed := flag.Int64("seed", 0, "Random seed (0 = time-based)")
	verbose := flag.Bool("verbose", false, "Print each prediction")
	flag.Parse()

	bound, ok := riskProfiles[*profile]
	if !ok {
		fmt.Printf("unknown profile %q (want low, medium, or high)\n", *profile)
		os.Exit(1)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	fmt.Println("FraudLens traffic simulator")
	fmt.Printf("  URL:     %s\n", *baseURL)
	fmt.Printf("  Count:   %d\n", *count)
	fmt.Printf("  Workers: %d\n", *workers)
	fmt.Printf("  Profile: %s (V features in ±%.0f)\n", *profile, bound)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: FraudLens not reachable at %s: %v\n", *baseURL, err)
		os.Exit(1)
	}

	stats := &Stats{}
	work := make(chan int64, 100)
	var wg sync.WaitGroup

	start := time.Now()
	for w := 0; w < *workers; w++ {
		wg.Add(1)
		go func(workerSeed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(workerSeed))
			client := &http.Client{Timeout: 10 * time.Second}

			for range work {
				record := generateRecord(rng, bound)

				sendStart := time.Now()
				result, err := predict(client, *baseURL, record)
				atomic.AddInt64(&stats.LatencyMs, time.Since(sendStart).Milliseconds())
				atomic.AddInt64(&stats.Total, 1)

				if err != nil {
					atomic.AddInt64(&stats.Errors, 1)
					if *verbose {
						fmt.Printf("ERROR: %v\n", err)
					}
					continue
				}

				addProbability(stats, result.FraudProbability)
				switch result.Prediction {
				case "FRAUD":
					atomic.AddInt64(&stats.Fraud, 1)
				case "LEGIT":
					atomic.AddInt64(&stats.Legit, 1)
				}
				if result.Review != nil && *result.Review {
					atomic.AddInt64(&stats.Flagged, 1)
				}

				if *verbose {
					fmt.Printf("  %-5s  p=%.4f  amount=%.2f\n",
						result.Prediction, result.FraudProbability, record["Amount"])
				}

				if *delay > 0 {
					time.Sleep(*delay)
				}
			}
		}(*seed + int64(w))
	}

	for i := 0; i < *count; i++ {
		work <- int64(i)
	}
	close(work)
	wg.Wait()

	printResults(stats, time.Since(start))
}

// generateRecord builds a synthetic record: Time within a 48-hour
// window, Amount in [1, 2000], and PCA features within the profile
// bound.
func generateRecord(rng *rand.Rand, bound float64) map[string]float64 {
	record := map[string]float64{
		"Time":   rng.Float64() * 172800,
		"Amount": 1 + rng.Float64()*1999,
	}
	for i := 1; i <= 28; i++ {
		record[fmt.Sprintf("V%d", i)] = (rng.Float64()*2 - 1) * bound
	}
	return record
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func predict(client *http.Client, baseURL string, record map[string]float64) (*PredictResponse, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var payload map[string]string
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, payload["error"])
	}

	var result PredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// addProbability accumulates probabilities across workers without a
// mutex.
func addProbability(stats *Stats, p float64) {
	for {
		old := atomic.LoadUint64(&stats.ProbabilitySum)
		sum := math.Float64frombits(old) + p
		if atomic.CompareAndSwapUint64(&stats.ProbabilitySum, old, math.Float64bits(sum)) {
			return
		}
	}
}

func printResults(stats *Stats, duration time.Duration) {
	total := atomic.LoadInt64(&stats.Total)
	scored := total - atomic.LoadInt64(&stats.Errors)

	fmt.Println()
	fmt.Println("Results")
	fmt.Printf("  Sent:      %d in %s\n", total, duration.Round(time.Millisecond))
	fmt.Printf("  Fraud:     %d\n", stats.Fraud)
	fmt.Printf("  Legit:     %d\n", stats.Legit)
	if stats.Flagged > 0 {
		fmt.Printf("  Review:    %d\n", stats.Flagged)
	}
	fmt.Printf("  Errors:    %d\n", stats.Errors)
	if scored > 0 {
		avg := math.Float64frombits(atomic.LoadUint64(&stats.ProbabilitySum)) / float64(scored)
		fmt.Printf("  Mean p:    %.4f\n", avg)
	}
	if total > 0 {
		fmt.Printf("  Avg time:  %dms\n", stats.LatencyMs/total)
	}
}

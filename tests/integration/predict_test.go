//go:build integration
// +build integration

// Package integration provides end-to-end tests against a running
// FraudLens instance.
//
// These tests verify the complete scoring pipeline:
//
//	Record → Schema validation → Standardization → Probability →
//	Ranked attribution → Response
//
// Run with: go test -tags=integration -v ./tests/integration/...
//
// The server must be started with the repository's example artifacts:
//
//	FRAUDLENS_ARTIFACTS=./artifacts go run cmd/fraudlens/main.go
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"testing"
	"time"
)

func baseURL() string {
	if url := os.Getenv("FRAUDLENS_TEST_URL"); url != "" {
		return url
	}
	return "http://localhost:8000"
}

var client = &http.Client{Timeout: 10 * time.Second}

// PredictResponse mirrors the POST /predict contract.
type PredictResponse struct {
	FraudProbability float64            `json:"fraud_probability"`
	Prediction       string             `json:"prediction"`
	TopFeatures      map[string]float64 `json:"top_features"`
	Review           *bool              `json:"review,omitempty"`
}

func validRecord(rng *rand.Rand) map[string]float64 {
	record := map[string]float64{
		"Time":   rng.Float64() * 172800,
		"Amount": 1 + rng.Float64()*1999,
	}
	for i := 1; i <= 28; i++ {
		record[fmt.Sprintf("V%d", i)] = rng.Float64()*6 - 3
	}
	return record
}

func postPredict(t *testing.T, payload any) (*http.Response, []byte) {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	resp, err := client.Post(baseURL()+"/predict", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request failed (is the server running?): %v", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	return resp, buf.Bytes()
}

func TestServerHealthy(t *testing.T) {
	resp, err := client.Get(baseURL() + "/health")
	if err != nil {
		t.Fatalf("health check failed (is the server running?): %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /health, got %d", resp.StatusCode)
	}
}

func TestPredictReturnsCalibratedResult(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	resp, body := postPredict(t, validRecord(rng))

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	var result PredictResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if result.FraudProbability < 0 || result.FraudProbability > 1 {
		t.Errorf("probability %v outside [0,1]", result.FraudProbability)
	}
	if result.Prediction != "FRAUD" && result.Prediction != "LEGIT" {
		t.Errorf("unexpected label %q", result.Prediction)
	}
	if len(result.TopFeatures) == 0 || len(result.TopFeatures) > 5 {
		t.Errorf("expected 1..5 top features, got %d", len(result.TopFeatures))
	}
}

func TestPredictDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	record := validRecord(rng)

	_, first := postPredict(t, record)
	_, second := postPredict(t, record)

	if !bytes.Equal(first, second) {
		t.Errorf("identical records produced different responses:\n%s\n%s", first, second)
	}
}

func TestPredictRejectsIncompleteRecord(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	record := validRecord(rng)
	delete(record, "V14")

	resp, body := postPredict(t, record)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, body)
	}

	var payload map[string]string
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("error payload is not JSON: %v", err)
	}
	if payload["error"] == "" {
		t.Error("error payload missing error message")
	}
}

func TestPredictRejectsNonNumericValue(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	record := make(map[string]any)
	for k, v := range validRecord(rng) {
		record[k] = v
	}
	record["Amount"] = "lots"

	resp, _ := postPredict(t, record)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric value, got %d", resp.StatusCode)
	}
}

func TestHistoryReflectsPredictions(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	resp, _ := postPredict(t, validRecord(rng))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("predict failed: %d", resp.StatusCode)
	}

	// Events propagate through the bus asynchronously.
	time.Sleep(100 * time.Millisecond)

	histResp, err := client.Get(baseURL() + "/history")
	if err != nil {
		t.Fatalf("history request failed: %v", err)
	}
	defer histResp.Body.Close()

	if histResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /history, got %d", histResp.StatusCode)
	}

	var events []map[string]any
	if err := json.NewDecoder(histResp.Body).Decode(&events); err != nil {
		t.Fatalf("failed to parse history: %v", err)
	}
	if len(events) == 0 {
		t.Error("expected history to contain the prediction")
	}
}

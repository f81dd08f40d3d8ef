// embed-sim is a stand-in for the embedding service used in local
// development. It returns a deterministic pseudo-random 1024-dimension
// vector per input text, with optional injected failures.
package main

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"
)

const dimensions = 1024

func main() {
	port := 4000
	if raw := os.Getenv("PORT"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			port = n
		}
	}
	failureRate := 0.02
	if raw := os.Getenv("FAILURE_RATE"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			failureRate = f
		}
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	http.HandleFunc("POST /embed", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Text == "" {
			http.Error(w, `{"error":"text is required"}`, http.StatusBadRequest)
			return
		}

		time.Sleep(time.Duration(50+rand.Intn(200)) * time.Millisecond)

		if rand.Float64() < failureRate {
			http.Error(w, `{"error":"embedding failed"}`, http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"embedding": embed(in.Text)})
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	slog.Info("embedding simulator starting", "port", port, "failure_rate", failureRate)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), nil); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// embed derives the vector from a hash of the text so the same input
// always embeds to the same vector.
func embed(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	vec := make([]float32, dimensions)
	for i := range vec {
		vec[i] = rng.Float32()*2 - 1
	}
	return vec
}

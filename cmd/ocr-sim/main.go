// ocr-sim is a stand-in for the OCR service used in local development. It
// accepts JPEG page images, sleeps a little and answers with generated text.
// A small fraction of requests fail on purpose so the pipeline's failure
// handling can be exercised without a flaky real service.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

var jpegMagic = []byte{0xFF, 0xD8, 0xFF}

var words = strings.Fields(`lorem ipsum dolor sit amet consectetur adipiscing
elit sed do eiusmod tempor incididunt ut labore et dolore magna aliqua enim
ad minim veniam quis nostrud exercitation ullamco laboris nisi aliquip ex ea
commodo consequat duis aute irure in reprehenderit voluptate velit esse
cillum eu fugiat nulla pariatur excepteur sint occaecat cupidatat non
proident sunt culpa qui officia deserunt mollit anim id est laborum`)

func main() {
	port := 4001
	if raw := os.Getenv("PORT"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			port = n
		}
	}
	failureRate := 0.05
	if raw := os.Getenv("FAILURE_RATE"); raw != "" {
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			failureRate = f
		}
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	http.HandleFunc("POST /ocr", func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "image/jpeg" {
			http.Error(w, `{"error":"content type must be image/jpeg"}`, http.StatusBadRequest)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil || !bytes.HasPrefix(body, jpegMagic) {
			http.Error(w, `{"error":"body is not a valid jpeg image"}`, http.StatusBadRequest)
			return
		}

		// Simulated recognition latency
		time.Sleep(time.Duration(200+rand.Intn(800)) * time.Millisecond)

		if rand.Float64() < failureRate {
			http.Error(w, `{"error":"recognition failed"}`, http.StatusInternalServerError)
			return
		}

		text := generateText(40 + rand.Intn(120))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": text})
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	slog.Info("ocr simulator starting", "port", port, "failure_rate", failureRate)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), nil); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func generateText(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = words[rand.Intn(len(words))]
	}
	return strings.Join(out, " ")
}

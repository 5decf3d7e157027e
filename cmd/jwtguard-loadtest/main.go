// Command jwtguard-loadtest measures authentication throughput and latency
// of the engine in-process, without network overhead. It issues a pool of
// tokens, then hammers Authenticate from concurrent workers and reports
// throughput and latency percentiles.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwhitmore/jwtguard"
)

func main() {
	workers := flag.Int("workers", 8, "concurrent workers")
	duration := flag.Duration("duration", 10*time.Second, "test duration")
	tokens := flag.Int("tokens", 1024, "size of the pre-issued token pool")
	invalidPct := flag.Int("invalid", 0, "percentage of requests using an invalid credential")
	flag.Parse()

	if *invalidPct < 0 || *invalidPct > 100 {
		log.Fatal("-invalid must be between 0 and 100")
	}

	engine, err := jwtguard.New().
		WithSecret([]byte("loadtest-secret-0123456789abcdef")).
		WithUserRetriever(jwtguard.UserRetrieverFunc(func(_ context.Context, subject string) (any, error) {
			return subject, nil
		})).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}
	defer engine.Close()

	fmt.Printf("issuing %d tokens...\n", *tokens)
	requests := make([]*http.Request, 0, *tokens)
	for i := range *tokens {
		encoded, err := engine.CreateToken(fmt.Sprintf("user-%d", i))
		if err != nil {
			log.Fatalf("issue token: %v", err)
		}
		r := httptest.NewRequest(http.MethodGet, "/resource", nil)
		r.Header.Set("Authorization", "Bearer "+encoded)
		requests = append(requests, r)
	}

	invalid := httptest.NewRequest(http.MethodGet, "/resource", nil)
	invalid.Header.Set("Authorization", "Bearer not-a-valid-token")

	fmt.Printf("running %d workers for %s (%d%% invalid)...\n", *workers, *duration, *invalidPct)

	var total, failures atomic.Int64
	latencies := make([][]time.Duration, *workers)
	deadline := time.Now().Add(*duration)

	var wg sync.WaitGroup
	for w := range *workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			rng := rand.New(rand.NewSource(int64(w) + time.Now().UnixNano()))
			local := make([]time.Duration, 0, 1<<16)
			ctx := context.Background()

			for time.Now().Before(deadline) {
				r := requests[rng.Intn(len(requests))]
				wantErr := rng.Intn(100) < *invalidPct
				if wantErr {
					r = invalid
				}

				start := time.Now()
				_, err := engine.Authenticate(ctx, r)
				local = append(local, time.Since(start))

				total.Add(1)
				if (err != nil) != wantErr {
					failures.Add(1)
				}
			}
			latencies[w] = local
		}()
	}
	wg.Wait()

	var all []time.Duration
	for _, local := range latencies {
		all = append(all, local...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })

	if len(all) == 0 {
		fmt.Println("no samples collected")
		os.Exit(1)
	}

	ops := total.Load()
	fmt.Printf("\n%d authentications in %s (%.0f ops/sec)\n", ops, *duration, float64(ops)/duration.Seconds())
	fmt.Printf("unexpected outcomes: %d\n", failures.Load())
	fmt.Printf("latency  p50=%s  p90=%s  p99=%s  max=%s\n",
		percentile(all, 0.50), percentile(all, 0.90), percentile(all, 0.99), all[len(all)-1])

	fmt.Println("\nengine counters:")
	snapshot := engine.MetricsSnapshot()
	fmt.Printf("  success:  %d\n", snapshot[jwtguard.MetricAuthSuccess])
	fmt.Printf("  rejected: %d\n", snapshot[jwtguard.MetricAuthRejected])
	fmt.Printf("  issued:   %d\n", snapshot[jwtguard.MetricTokenIssued])

	if failures.Load() > 0 {
		os.Exit(1)
	}
}

func percentile(sorted []time.Duration, q float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)-1) * q)
	return sorted[idx]
}

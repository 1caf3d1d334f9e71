package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/smart-home-relay/alexa-relay/internal/schema"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Load the relay with skill events and report latency",
	Long: `Send skill events to the relay concurrently and report latency percentiles.

Launch events are sent by default. With --command every event is a
SmartHomeIntent carrying that command, which reaches the smart-home endpoint.`,
	Args: cobra.NoArgs,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().Int("count", 10, "Number of requests to send")
	benchCmd.Flags().Int("concurrency", 1, "Number of concurrent workers")
	benchCmd.Flags().String("command", "", "Send SmartHomeIntent events with this command")
	benchCmd.Flags().BoolVar(&useMsgpack, "msgpack", false, "Encode events as MessagePack")

	rootCmd.AddCommand(benchCmd)
}

type benchResult struct {
	duration   time.Duration
	statusCode int
	err        error
}

func (r benchResult) success() bool {
	return r.err == nil && r.statusCode >= 200 && r.statusCode < 300
}

type benchSummary struct {
	durations []time.Duration
	total     int
	success   int
	statuses  map[int]int
}

func (s *benchSummary) add(r benchResult) {
	s.total++
	if s.statuses == nil {
		s.statuses = make(map[int]int)
	}
	if r.statusCode != 0 {
		s.statuses[r.statusCode]++
	}
	if r.success() {
		s.success++
		s.durations = append(s.durations, r.duration)
	}
}

func (s *benchSummary) print(w io.Writer) {
	fmt.Fprintf(w, "Total requests: %d\n", s.total)
	fmt.Fprintf(w, "Success: %d, Failed: %d\n", s.success, s.total-s.success)

	codes := make([]int, 0, len(s.statuses))
	for code := range s.statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		fmt.Fprintf(w, "  HTTP %d: %d\n", code, s.statuses[code])
	}

	if len(s.durations) > 0 {
		fmt.Fprintf(w, "Average duration: %s\n", average(s.durations))
		fmt.Fprintf(w, "P50: %s\n", percentile(s.durations, 0.50))
		fmt.Fprintf(w, "P90: %s\n", percentile(s.durations, 0.90))
		fmt.Fprintf(w, "P99: %s\n", percentile(s.durations, 0.99))
	}
}

func runBench(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	command, _ := cmd.Flags().GetString("command")

	if count < 1 {
		return fmt.Errorf("count must be positive")
	}
	if concurrency < 1 {
		concurrency = 1
	}

	client := &http.Client{Timeout: 30 * time.Second}
	sum := runWorkers(cmd.Context(), count, concurrency, func(ctx context.Context) benchResult {
		event := newEvent(schema.RequestTypeLaunch, "", "")
		if command != "" {
			event = newEvent(schema.RequestTypeIntent, "SmartHomeIntent", command)
		}
		return sendBenchEvent(ctx, client, event)
	})

	sum.print(cmd.OutOrStdout())
	return nil
}

// runWorkers issues count calls to do across concurrency goroutines.
func runWorkers(ctx context.Context, count, concurrency int, do func(context.Context) benchResult) *benchSummary {
	jobs := make(chan struct{})
	results := make(chan benchResult, concurrency)
	var workers sync.WaitGroup

	for i := 0; i < concurrency; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for range jobs {
				results <- do(ctx)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < count; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- struct{}{}:
			}
		}
	}()

	go func() {
		workers.Wait()
		close(results)
	}()

	sum := &benchSummary{}
	for r := range results {
		sum.add(r)
	}
	return sum
}

func sendBenchEvent(ctx context.Context, client *http.Client, event schema.Event) benchResult {
	start := time.Now()

	body, contentType, err := encodeEvent(event, useMsgpack)
	if err != nil {
		return benchResult{err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+"/v1/skill", bytes.NewReader(body))
	if err != nil {
		return benchResult{err: err}
	}
	req.Header.Set("Content-Type", contentType)
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return benchResult{duration: time.Since(start), err: err}
	}
	defer resp.Body.Close()

	_, err = io.Copy(io.Discard, resp.Body)
	return benchResult{duration: time.Since(start), statusCode: resp.StatusCode, err: err}
}

func percentile(values []time.Duration, p float64) time.Duration {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), values...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	rank := p * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return time.Duration(float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight)
}

func average(values []time.Duration) time.Duration {
	if len(values) == 0 {
		return 0
	}
	var total time.Duration
	for _, v := range values {
		total += v
	}
	return total / time.Duration(len(values))
}

// Package main provides a performance benchmarking tool for the Vertimeter CLI.
// It measures analysis times across synthetic sessions of different lengths and
// file formats, running each test multiple times, treating the first successful
// run as cold and averaging the rest as warm, and writes CSV output for
// performance analysis and documentation.
//
// Prerequisites:
// - vertimeter binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where synthetic sessions and the benchmark cache are written
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Session     string
	Format      string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	NoCacheRuns int
	CacheRuns   int
	Sessions    map[string]int // session name -> number of jumps
	Order       []string
	Formats     []string
}

func main() {
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Sessions: map[string]int{
			"short":    5,
			"training": 100,
			"marathon": 2000,
		},
		Order:   []string{"short", "training", "marathon"},
		Formats: []string{"jsonl", "csv", "parquet"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating sessions...\n")
	if err := generateSessions(config); err != nil {
		fmt.Printf("Failed to generate sessions: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(config, results)
}

// checkPrerequisites verifies that the vertimeter binary and the work dir exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("vertimeter"); err != nil {
		return errors.New("vertimeter binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// sessionPath returns where a generated session lives.
func sessionPath(config BenchmarkConfig, name, format string) string {
	return filepath.Join(config.WorkDir, name+"."+format)
}

// cachePath returns the SQLite cache used by the cache phase.
func cachePath(config BenchmarkConfig) string {
	return filepath.Join(config.WorkDir, "benchmark_cache.db")
}

// generateSessions writes every session in every format with vertimeter simulate.
func generateSessions(config BenchmarkConfig) error {
	for _, name := range config.Order {
		jumps := strconv.Itoa(config.Sessions[name])
		for _, format := range config.Formats {
			path := sessionPath(config, name, format)
			cmd := exec.Command("vertimeter", "simulate", "--cache-backend", "none",
				"--jumps", jumps, "--jitter", "0.002", "--output-file", path)
			if output, err := cmd.CombinedOutput(); err != nil {
				return fmt.Errorf("simulate %s: %w\nOutput: %s", path, err, output)
			}
		}
	}
	return nil
}

// runBenchmarks executes all benchmark tests across configured sessions
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d sessions, %d formats, %v timeout, no-cache: %d runs, cache: %d runs\n",
		len(config.Order), len(config.Formats), config.Timeout, config.NoCacheRuns, config.CacheRuns)

	for _, name := range config.Order {
		fmt.Printf("Benchmarking %s (%d jumps)\n", name, config.Sessions[name])
		for _, format := range config.Formats {
			results = append(results, runBenchmarkSuite(config, name, format))
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for one session file
func runBenchmarkSuite(config BenchmarkConfig, name, format string) BenchmarkResult {
	path := sessionPath(config, name, format)
	fmt.Printf("Running analyze on %s\n", path)

	runPhase := func(cacheArgs []string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, path, cacheArgs, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase([]string{"--cache-backend", "none"}, config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs against a fresh cache
	_ = os.Remove(cachePath(config))
	coldTime, warmAvg := runPhase([]string{"--cache-backend", "sqlite", "--cache-db-connect", cachePath(config)}, config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Session:     name,
		Format:      format,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark analyzes a session multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, path string, cacheArgs []string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := append([]string{"analyze", path}, cacheArgs...)

	var times []float64
	for run := 1; run <= numRuns; run++ {
		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		start := time.Now()
		output, err := exec.CommandContext(ctx, "vertimeter", args...).CombinedOutput()
		elapsed := time.Since(start).Seconds()
		cancel()

		if err == nil && isSuccess(output) {
			times = append(times, elapsed)
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte) bool {
	return strings.Contains(string(output), "Session completed in")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/vertimeter_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"session", "format", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Session, result.Format, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(config BenchmarkConfig, results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	for _, format := range config.Formats {
		fmt.Printf("%s sessions:\n", strings.ToUpper(format))
		for _, result := range results {
			if result.Format == format {
				fmt.Printf("  %-10s: No-cache: %s, Cold: %s, Warm: %s\n", result.Session, result.NoCacheTime, result.ColdTime, result.WarmTime)
			}
		}
	}

	fmt.Printf("Benchmark script completed successfully\n")
}

// Package main provides a performance benchmarking tool for the catalogsync CLI.
// It generates synthetic catalogs of increasing size, then measures sync and list times
// with and without a snapshot cache, running each test multiple times, treating the first
// successful run as cold and averaging the rest as warm, and writes CSV output for analysis.
//
// Prerequisites:
// - catalogsync binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory for generated catalogs and the benchmark cache database
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Catalog     string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	BatchLimit  int
	NoCacheRuns int
	CacheRuns   int
	Sizes       map[string]int
	Order       []string
}

// catalogFile mirrors the YAML catalog read by the file source.
type catalogFile struct {
	Entries []catalogEntry `yaml:"entries"`
}

type catalogEntry struct {
	ID  string   `yaml:"id"`
	Key []string `yaml:"key"`
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}
	workDir := os.Args[1]

	config := BenchmarkConfig{
		WorkDir:     workDir,
		Timeout:     5 * time.Minute,
		BatchLimit:  500,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Sizes: map[string]int{
			"small":  1_000,
			"medium": 10_000,
			"large":  100_000,
		},
		Order: []string{"small", "medium", "large"},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the catalogsync binary and the work directory exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("catalogsync"); err != nil {
		return fmt.Errorf("catalogsync binary not found in PATH")
	}
	return os.MkdirAll(config.WorkDir, 0o755)
}

// generateCatalog writes a catalog of n entries spread over namespaces of varying depth
func generateCatalog(path string, n int) error {
	catalog := catalogFile{Entries: make([]catalogEntry, n)}
	for i := range n {
		key := []string{"ns" + strconv.Itoa(i%20), "team" + strconv.Itoa(i%7)}
		if i%3 == 0 {
			key = append(key, "daily")
		}
		key = append(key, "asset"+strconv.Itoa(i))
		catalog.Entries[i] = catalogEntry{ID: strconv.Itoa(i), Key: key}
	}

	data, err := yaml.Marshal(catalog)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// runBenchmarks executes all benchmark tests across configured catalog sizes
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d catalogs, %v timeout, batch limit %d, no-cache: %d runs, cache: %d runs\n",
		len(config.Order), config.Timeout, config.BatchLimit, config.NoCacheRuns, config.CacheRuns)

	for _, name := range config.Order {
		catalogPath := filepath.Join(config.WorkDir, name+".yaml")
		if err := generateCatalog(catalogPath, config.Sizes[name]); err != nil {
			fmt.Printf("Failed to generate %s catalog: %v\n", name, err)
			continue
		}
		fmt.Printf("Benchmarking %s (%d entries)\n", name, config.Sizes[name])

		results = append(results,
			runBenchmarkSuite(config, name, catalogPath, "sync", "sync"),
			runBenchmarkSuite(config, name, catalogPath, "list", "cached list"),
		)
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, name, catalogPath, command, description string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", description, name)
	dbPath := filepath.Join(config.WorkDir, "bench_cache.db")

	// Helper to run a benchmark phase
	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, catalogPath, dbPath, command, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avg := sum / float64(len(times))
			avgTime = fmt.Sprintf("%.3fs", avg)
		}
		return cold, avgTime
	}

	// list has nothing to read without a cache
	noCacheAvg := "N/A"
	if command == "sync" {
		_, noCacheAvg = runPhase("none", config.NoCacheRuns, "No-cache")
	}

	// Phase 2: Cache runs from an empty table
	clearCmd := exec.Command("catalogsync", "cache", "clear", "--cache-db-connect", dbPath)
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	}
	if command == "list" {
		// list reads what a prior sync stored
		_, _ = runBenchmark(config, catalogPath, dbPath, "sync", "sqlite", 1)
	}
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Catalog:     name,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a catalogsync command multiple times with specified cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, catalogPath, dbPath, command, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		command,
		"--source", catalogPath,
		"--batch-limit", strconv.Itoa(config.BatchLimit),
		"--cache-backend", cacheBackend,
		"--cache-db-connect", dbPath,
		"--output", "json",
		"--output-file", os.DevNull,
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("catalogsync", args...)

		done := make(chan error, 1)
		go func() {
			done <- cmd.Run()
		}()

		select {
		case err := <-done:
			if err == nil {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/catalogsync_benchmark_%s.csv", timestamp)

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

	// Write header
	if err := writer.Write([]string{"catalog", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Catalog, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "sync", "Sync:")
	printCommandSummary(results, "list", "Cached List:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-8s: No-cache: %s, Cold: %s, Warm: %s\n", result.Catalog, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}

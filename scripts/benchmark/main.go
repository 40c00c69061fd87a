package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// CLI flags
var (
	apiURL    = flag.String("api-url", "http://localhost:8080", "Ticha API base URL")
	apiKey    = flag.String("api-key", "", "API key for authenticated requests")
	runs      = flag.Int("runs", 3, "Number of runs per engine for averaging")
	rateLimit = flag.Float64("rate-limit", 2.0, "Seconds between page loads inside each run")
	output    = flag.String("output", "benchmark-results.json", "JSON output file path")
)

// Both engines scrape the same table; their fingerprints must agree.
var engines = []string{"browser", "http"}

// --- Request / Response types (mirrors models package) ---

type scrapeRequest struct {
	Engine           string  `json:"engine"`
	RateLimitSeconds float64 `json:"rate_limit_seconds"`
}

type scrapeResponse struct {
	Success     bool         `json:"success"`
	Engine      string       `json:"engine"`
	Count       int          `json:"count"`
	Fingerprint string       `json:"fingerprint"`
	Timing      timingInfo   `json:"timing"`
	Error       *errorDetail `json:"error,omitempty"`
}

type timingInfo struct {
	TotalMs  int64 `json:"total_ms"`
	ScrapeMs int64 `json:"scrape_ms"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Benchmark result types ---

type runResult struct {
	Run         int    `json:"run"`
	TotalMs     int64  `json:"total_ms"`
	ScrapeMs    int64  `json:"scrape_ms"`
	Count       int    `json:"count"`
	Fingerprint string `json:"fingerprint"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

type engineAverages struct {
	TotalMs  float64 `json:"total_ms"`
	ScrapeMs float64 `json:"scrape_ms"`
	Count    float64 `json:"count"`
}

type engineResult struct {
	Engine   string          `json:"engine"`
	Runs     []runResult     `json:"runs"`
	Averages *engineAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp        string         `json:"timestamp"`
	APIURL           string         `json:"api_url"`
	RunsPerEngine    int            `json:"runs_per_engine"`
	Results          []engineResult `json:"results"`
	FingerprintAgree bool           `json:"fingerprints_agree"`
}

func main() {
	flag.Parse()

	fmt.Println("=== Ticha Engine Benchmark ===")
	fmt.Printf("API URL:     %s\n", *apiURL)
	fmt.Printf("Runs/engine: %d\n", *runs)
	fmt.Printf("Output:      %s\n", *output)
	fmt.Println()

	// Quick connectivity check.
	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure the API is running (ticha-scraper serve)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		APIURL:        *apiURL,
		RunsPerEngine: *runs,
	}

	for _, engine := range engines {
		fmt.Printf("Benchmarking engine %q ...\n", engine)
		er := engineResult{Engine: engine}

		for i := 1; i <= *runs; i++ {
			fmt.Printf("  Run %d/%d ... ", i, *runs)
			rr := benchmarkEngine(engine, i)
			if rr.Success {
				fmt.Printf("OK  %dms  %d records  %s\n", rr.TotalMs, rr.Count, rr.Fingerprint)
			} else {
				fmt.Printf("FAILED: %s\n", rr.Error)
			}
			er.Runs = append(er.Runs, rr)
		}

		er.Averages = computeAverages(er.Runs)
		report.Results = append(report.Results, er)
		fmt.Println()
	}

	report.FingerprintAgree = fingerprintsAgree(report.Results)

	// Print summary table.
	printTable(report.Results)
	if report.FingerprintAgree {
		fmt.Println("Fingerprints agree: both engines see the same inventory.")
	} else {
		fmt.Println("WARNING: fingerprints differ across runs or engines.")
	}

	// Write JSON report.
	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkEngine(engine string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(scrapeRequest{
		Engine:           engine,
		RateLimitSeconds: *rateLimit,
	})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest("POST", *apiURL+"/api/v1/scrape", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	client := &http.Client{Timeout: 300 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()

	var sr scrapeResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = sr.Success
	rr.TotalMs = sr.Timing.TotalMs
	rr.ScrapeMs = sr.Timing.ScrapeMs
	rr.Count = sr.Count
	rr.Fingerprint = sr.Fingerprint

	if sr.Error != nil {
		rr.Error = sr.Error.Message
	}

	return rr
}

func computeAverages(runs []runResult) *engineAverages {
	var successCount int
	var avg engineAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.TotalMs += float64(r.TotalMs)
		avg.ScrapeMs += float64(r.ScrapeMs)
		avg.Count += float64(r.Count)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMs /= n
	avg.ScrapeMs /= n
	avg.Count /= n
	return &avg
}

// fingerprintsAgree reports whether every successful run produced the same
// fingerprint. The table is server-rendered, so a disagreement means one
// engine is misreading it.
func fingerprintsAgree(results []engineResult) bool {
	var want string
	for _, er := range results {
		for _, rr := range er.Runs {
			if !rr.Success {
				continue
			}
			if want == "" {
				want = rr.Fingerprint
			} else if rr.Fingerprint != want {
				return false
			}
		}
	}
	return want != ""
}

func printTable(results []engineResult) {
	fmt.Println(strings.Repeat("─", 60))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Engine\tAvg Latency\tAvg Scrape\tRecords\n")
	fmt.Fprintf(w, "──────\t───────────\t──────────\t───────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\tFAILED\t-\t-\n", r.Engine)
			continue
		}
		fmt.Fprintf(w, "%s\t%dms\t%dms\t%d\n",
			r.Engine,
			int64(r.Averages.TotalMs),
			int64(r.Averages.ScrapeMs),
			int(r.Averages.Count),
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 60))
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

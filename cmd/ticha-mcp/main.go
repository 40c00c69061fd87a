package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// manuscriptRecord mirrors the Ticha API record model.
type manuscriptRecord struct {
	DocumentName string `json:"document_name"`
	DocumentLink string `json:"document_link"`
	FileType     string `json:"file_type"`
	TichaID      string `json:"ticha_id"`
	Year         string `json:"year"`
	Town         string `json:"town"`
	Archive      string `json:"archive"`
	DocType      string `json:"doc_type"`
	Language     string `json:"language"`
	TrptnStatus  string `json:"trptn_status"`
	Legibility   string `json:"legibility"`
}

// recordColumns is the CSV column order, matching the API's record fields.
var recordColumns = []string{
	"document_name", "document_link", "file_type", "ticha_id", "year",
	"town", "archive", "doc_type", "language", "trptn_status", "legibility",
}

func (r manuscriptRecord) fields() []string {
	return []string{
		r.DocumentName, r.DocumentLink, r.FileType, r.TichaID, r.Year,
		r.Town, r.Archive, r.DocType, r.Language, r.TrptnStatus, r.Legibility,
	}
}

// scrapeResponse mirrors the Ticha API scrape response model.
type scrapeResponse struct {
	Success     bool               `json:"success"`
	Engine      string             `json:"engine"`
	Count       int                `json:"count"`
	Fingerprint string             `json:"fingerprint"`
	Records     []manuscriptRecord `json:"records"`
	Citation    *struct {
		Citation string `json:"citation"`
	} `json:"citation"`
	CacheStatus string `json:"cache_status"`
	Error       *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// documentResponse mirrors the Ticha API document response model.
type documentResponse struct {
	Success       bool              `json:"success"`
	URL           string            `json:"url"`
	Metadata      map[string]string `json:"metadata"`
	Transcription string            `json:"transcription"`
	Interlinear   string            `json:"interlinear"`
	ModernSpanish string            `json:"modern_spanish"`
	Error         *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	apiURL := os.Getenv("TICHA_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	// Empty is fine: the API runs keyless unless TICHA_API_KEYS is set.
	apiKey := os.Getenv("TICHA_API_KEY")

	s := server.NewMCPServer(
		"ticha",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	scrapeManuscriptsTool := mcp.NewTool("scrape_manuscripts",
		mcp.WithDescription("Scrape the Ticha archive's handwritten manuscripts inventory table and return it as CSV. Covers Colonial Zapotec documents with their archive, town, year, language and transcription status."),
		mcp.WithString("engine",
			mcp.Description("Session engine: 'browser' (default, headless Chrome) or 'http' (plain fetch, no JavaScript)"),
			mcp.Enum("browser", "http"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Accept a cached result up to this many seconds old (default: 0, always scrape fresh)"),
		),
	)
	s.AddTool(scrapeManuscriptsTool, handleScrapeManuscripts(apiURL, apiKey))

	scrapeDocumentTool := mcp.NewTool("scrape_document",
		mcp.WithDescription("Fetch one manuscript page from the Ticha archive and return its metadata, transcription, interlinear analysis and modern Spanish translation."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The manuscript page URL, absolute or relative to the Ticha site (e.g. /en/texts/Te675/)"),
		),
		mcp.WithString("format",
			mcp.Description("Section format: 'text' (default) or 'markdown' (tables preserved)"),
			mcp.Enum("text", "markdown"),
		),
	)
	s.AddTool(scrapeDocumentTool, handleScrapeDocument(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiPost sends a POST request to the Ticha API and returns the response body.
func apiPost(ctx context.Context, client *http.Client, apiURL, apiKey, path string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleScrapeManuscripts(apiURL, apiKey string) server.ToolHandlerFunc {
	// A fresh browser scrape takes a while: launch, navigate, rate limit.
	client := &http.Client{Timeout: 300 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload := map[string]interface{}{}
		if engine := request.GetString("engine", ""); engine != "" {
			payload["engine"] = engine
		}
		args := request.GetArguments()
		if maxAge, ok := args["max_age"]; ok {
			payload["max_age"] = maxAge
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/scrape", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("scrape request failed: %v", err)), nil
		}

		var scrapeResp scrapeResponse
		if err := json.Unmarshal(respBody, &scrapeResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !scrapeResp.Success {
			errMsg := "scrape failed"
			if scrapeResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", scrapeResp.Error.Code, scrapeResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%d manuscripts (engine %s, fingerprint %s",
			scrapeResp.Count, scrapeResp.Engine, scrapeResp.Fingerprint))
		if scrapeResp.CacheStatus == "hit" {
			sb.WriteString(", cached")
		}
		sb.WriteString(")\n\n")

		w := csv.NewWriter(&sb)
		w.Write(recordColumns)
		for _, rec := range scrapeResp.Records {
			w.Write(rec.fields())
		}
		w.Flush()

		if scrapeResp.Citation != nil {
			sb.WriteString("\n" + scrapeResp.Citation.Citation)
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleScrapeDocument(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		payload := map[string]interface{}{"url": url}
		if format := request.GetString("format", ""); format != "" {
			payload["format"] = format
		}

		respBody, err := apiPost(ctx, client, apiURL, apiKey, "/api/v1/document", payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("document request failed: %v", err)), nil
		}

		var docResp documentResponse
		if err := json.Unmarshal(respBody, &docResp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		if !docResp.Success {
			errMsg := "document scrape failed"
			if docResp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", docResp.Error.Code, docResp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var sb strings.Builder
		sb.WriteString("URL: " + docResp.URL + "\n")

		if len(docResp.Metadata) > 0 {
			sb.WriteString("\nMetadata:\n")
			keys := make([]string, 0, len(docResp.Metadata))
			for k := range docResp.Metadata {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				sb.WriteString(fmt.Sprintf("  %s: %s\n", k, docResp.Metadata[k]))
			}
		}

		for _, section := range []struct {
			name string
			body string
		}{
			{"Transcription", docResp.Transcription},
			{"Interlinear", docResp.Interlinear},
			{"Modern Spanish", docResp.ModernSpanish},
		} {
			if section.body != "" {
				sb.WriteString("\n" + section.name + ":\n" + section.body + "\n")
			}
		}

		return mcp.NewToolResultText(sb.String()), nil
	}
}

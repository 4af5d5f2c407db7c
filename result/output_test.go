package result

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func sampleSummary() *Summary {
	return &Summary{
		SessionID:         1,
		StartURL:          "https://example.com",
		Status:            "finished",
		PagesCrawled:      25,
		ErrorsEncountered: 2,
		Duration:          3 * time.Second,
		FailedLinks: []FailedLink{
			{URL: "https://example.com/broken", RetryCount: 3, Error: "http error 404: Not Found", ErrorCategory: Category4xx},
			{URL: "https://external.com/error", RetryCount: 3, Error: "network error after retries exhausted: connection refused", ErrorCategory: CategoryConnectionRefused},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleSummary()); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	var decoded Summary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if decoded.PagesCrawled != 25 {
		t.Errorf("expected pages_crawled=25, got %d", decoded.PagesCrawled)
	}
	if len(decoded.FailedLinks) != 2 {
		t.Errorf("expected 2 failed links, got %d", len(decoded.FailedLinks))
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("Failed to unmarshal to map: %v", err)
	}
	for _, field := range []string{"session_id", "start_url", "status", "pages_crawled", "errors_encountered", "failed_links"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("expected %q field in JSON output", field)
		}
	}

	if !strings.Contains(buf.String(), "https://example.com/broken") {
		t.Error("URLs should not be HTML-escaped")
	}
}

func TestWriteJSON_NoFailedLinks(t *testing.T) {
	sum := &Summary{SessionID: 1, StartURL: "https://example.com", Status: "finished", PagesCrawled: 5}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, sum); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	var decoded Summary
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if len(decoded.FailedLinks) != 0 {
		t.Errorf("expected no failed links, got %d", len(decoded.FailedLinks))
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleSummary()); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}

	reader := csv.NewReader(strings.NewReader(buf.String()))
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV output: %v", err)
	}

	expectedHeader := []string{"url", "retry_count", "error_type", "error"}
	if len(records) < 1 {
		t.Fatal("expected at least header row")
	}
	for i, col := range expectedHeader {
		if records[0][i] != col {
			t.Errorf("header column %d: expected %q, got %q", i, col, records[0][i])
		}
	}

	if len(records) != 3 {
		t.Errorf("expected 3 records (header + 2 data), got %d", len(records))
	}
	if records[1][0] != "https://example.com/broken" {
		t.Errorf("expected URL in row 1, got %q", records[1][0])
	}
	if records[1][2] != "4xx" {
		t.Errorf("expected error_type '4xx' in row 1, got %q", records[1][2])
	}
}

func TestWriteCSV_EmptyWithHeader(t *testing.T) {
	sum := &Summary{}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, sum); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}

	reader := csv.NewReader(strings.NewReader(buf.String()))
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV output: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record (header only), got %d", len(records))
	}
}

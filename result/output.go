package result

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// WriteJSON writes the summary as formatted JSON to the writer.
func WriteJSON(w io.Writer, sum *Summary) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}

// WriteCSV writes the summary's failed links as CSV to the writer.
// Always includes a header row, even if there are no failed links.
// Column order: url, retry_count, error_type, error
func WriteCSV(w io.Writer, sum *Summary) error {
	cw := csv.NewWriter(w)

	header := []string{"url", "retry_count", "error_type", "error"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, link := range sum.FailedLinks {
		record := []string{
			link.URL,
			strconv.Itoa(link.RetryCount),
			string(link.ErrorCategory),
			link.Error,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv record for %s: %w", link.URL, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

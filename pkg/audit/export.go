package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Export renders entries in the requested format
func Export(entries []*Entry, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportFormatJSON, "":
		return json.MarshalIndent(entries, "", "  ")
	case ExportFormatNDJSON:
		return exportNDJSON(entries)
	case ExportFormatCSV:
		return exportCSV(entries)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ContentType returns the MIME type for an export format
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatCSV:
		return "text/csv"
	case ExportFormatNDJSON:
		return "application/x-ndjson"
	default:
		return "application/json"
	}
}

func exportNDJSON(entries []*Entry) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return nil, fmt.Errorf("failed to encode entry: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func exportCSV(entries []*Entry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := []string{"ID", "CreatedAt", "Level", "Username", "Action", "Message", "IPAddress", "UserAgent", "Details"}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, entry := range entries {
		row := []string{
			strconv.FormatInt(entry.ID, 10),
			entry.CreatedAt.UTC().Format(time.RFC3339),
			string(entry.Level),
			entry.Username,
			entry.Action,
			entry.Message,
			entry.IPAddress,
			entry.UserAgent,
			entry.Details,
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

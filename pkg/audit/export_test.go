package audit

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []*Entry {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return []*Entry{
		{ID: 1, Level: LevelInfo, Username: "alice", Action: ActionLogin, Message: "user logged in", CreatedAt: at},
		{ID: 2, Level: LevelWarning, Username: "bob", Action: ActionUnauthorizedAccess, Message: `denied, "roles"`, CreatedAt: at},
	}
}

func TestExport_JSON(t *testing.T) {
	body, err := Export(sampleEntries(), ExportFormatJSON)
	require.NoError(t, err)

	var decoded []Entry
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Len(t, decoded, 2)
	assert.Equal(t, "bob", decoded[1].Username)
}

func TestExport_NDJSON(t *testing.T) {
	body, err := Export(sampleEntries(), ExportFormatNDJSON)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"action":"LOGIN"`)
}

func TestExport_CSVQuotes(t *testing.T) {
	body, err := Export(sampleEntries(), ExportFormatCSV)
	require.NoError(t, err)

	out := string(body)
	assert.Contains(t, out, "2024-01-02T03:04:05Z")
	assert.Contains(t, out, `"denied, ""roles"""`)
}

func TestExport_Unsupported(t *testing.T) {
	_, err := Export(sampleEntries(), ExportFormat("xml"))
	assert.Error(t, err)
}

func TestExportFormat_ContentType(t *testing.T) {
	assert.Equal(t, "text/csv", ExportFormatCSV.ContentType())
	assert.Equal(t, "application/x-ndjson", ExportFormatNDJSON.ContentType())
	assert.Equal(t, "application/json", ExportFormatJSON.ContentType())
}

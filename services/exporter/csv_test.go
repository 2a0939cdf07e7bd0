package exporter

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permitleads/leadstack/internal/models"
)

func TestRenderCSV_EmptyProducesHeaderOnly(t *testing.T) {
	data, err := RenderCSV(nil)
	require.NoError(t, err)

	records := parseCSV(t, data)
	require.Len(t, records, 1)
	assert.Equal(t, digestColumns, records[0])
}

func TestRenderCSV_RowsFollowInputOrder(t *testing.T) {
	issued := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	permits := []*models.Permit{
		{ID: "pmt_1", PermitNumber: "2026-001", City: "austin", Valuation: 125000.50, IssuedDate: &issued},
		{ID: "pmt_2", PermitNumber: "2026-002", City: "austin", WorkClass: "Remodel"},
	}

	data, err := RenderCSV(permits)
	require.NoError(t, err)

	records := parseCSV(t, data)
	require.Len(t, records, 3)
	assert.Equal(t, "2026-001", records[1][0])
	assert.Equal(t, "125000.50", records[1][4])
	assert.Equal(t, "2026-08-15", records[1][7])
	assert.Equal(t, "2026-002", records[2][0])
	assert.Equal(t, "", records[2][7])
	assert.Equal(t, "Remodel", records[2][3])
}

func TestRenderCSV_EscapesEmbeddedCommas(t *testing.T) {
	permits := []*models.Permit{
		{ID: "pmt_1", PermitNumber: "2026-003", Description: "demo, then new build"},
	}

	data, err := RenderCSV(permits)
	require.NoError(t, err)

	records := parseCSV(t, data)
	require.Len(t, records, 2)
	assert.Equal(t, "demo, then new build", records[1][13])
}

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return records
}

package alertlog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cypherlabdev/kalshi-odds-scanner/internal/models"
	"github.com/cypherlabdev/kalshi-odds-scanner/internal/service"
)

var _ service.AlertSink = (*Sink)(nil)

func testAlert(key string) models.Alert {
	return models.Alert{
		ID:              uuid.New(),
		EmittedAt:       time.Date(2026, 2, 7, 19, 0, 0, 0, time.UTC),
		Cycle:           4,
		MappingKey:      key,
		Direction:       models.DirectionCheap,
		EdgeBps:         400,
		Confidence:      0.87,
		Bucket:          models.BucketHigh,
		ContractID:      "KXNBAGAME-26FEB07HOUOKC-OKC",
		ContractSide:    models.SideYes,
		ContractPrice:   decimal.RequireFromString("0.45"),
		Liquidity:       100,
		EventID:         "evt-1",
		MarketType:      models.MarketTypeH2H,
		Selection:       "Oklahoma City Thunder",
		FairProbability: 0.5,
		Overround:       0.0476,
		VigMethod:       models.VigMethodProportional,
		BookCount:       2,
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

// TestEmit_FlatRecord tests that one alert becomes one flat JSON line
func TestEmit_FlatRecord(t *testing.T) {
	var buf bytes.Buffer
	sink := New(&buf, zerolog.Nop())

	alert := testAlert("okc")
	require.NoError(t, sink.Emit(context.Background(), alert))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &record))

	assert.Equal(t, alert.ID.String(), record["alert_id"])
	assert.Equal(t, "okc", record["market_key"])
	assert.Equal(t, "cheap", record["direction"])
	assert.Equal(t, 400.0, record["edge_bps"])
	assert.Equal(t, "HIGH", record["bucket"])
	assert.Equal(t, "0.45", record["contract_price"])
	assert.Equal(t, 4.0, record["cycle"])
	assert.Equal(t, "2026-02-07T19:00:00Z", record["emitted_at"])
	assert.NotContains(t, record, "level")

	for k, v := range record {
		switch v.(type) {
		case map[string]interface{}, []interface{}:
			t.Errorf("field %s is nested", k)
		}
	}
}

// TestEmit_WriteFailure tests that write errors surface to the caller
func TestEmit_WriteFailure(t *testing.T) {
	sink := New(failingWriter{}, zerolog.Nop())

	err := sink.Emit(context.Background(), testAlert("okc"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

// TestOpen_Appends tests that reopening the file keeps earlier records
func TestOpen_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.jsonl")

	sink, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, sink.Emit(context.Background(), testAlert("okc")))
	require.NoError(t, sink.Close())

	sink, err = Open(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, sink.Emit(context.Background(), testAlert("hou")))
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var keys []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var record map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
		keys = append(keys, record["market_key"].(string))
	}
	assert.Equal(t, []string{"okc", "hou"}, keys)
}

// TestOpen_BadPath tests opening a file in a missing directory
func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "alerts.jsonl"), zerolog.Nop())
	assert.Error(t, err)
}

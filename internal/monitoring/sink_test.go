// internal/monitoring/sink_test.go
package monitoring

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telecom-query-gateway/internal/common/logger"
)

func TestMemorySink_StampsEveryRecord(t *testing.T) {
	sink := NewMemorySink()

	sink.Record(Record{Path: "fast", Reason: "single-entity", Success: true})
	sink.Record(Record{Path: "slow", Reason: "multiple-entities", Success: false, ErrorKind: "upstream_timeout"})

	records := sink.Snapshot()
	require.Len(t, records, 2)

	for _, rec := range records {
		assert.NotEmpty(t, rec.ID)
		assert.False(t, rec.Timestamp.IsZero())
	}
	assert.NotEqual(t, records[0].ID, records[1].ID)
}

func TestMemorySink_ConcurrentAppendsAreAppendOnly(t *testing.T) {
	sink := NewMemorySink()

	const writers = 20
	const perWriter = 50

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				sink.Record(Record{Path: "fast", Success: true})
			}
		}()
	}
	wg.Wait()

	records := sink.Snapshot()
	require.Len(t, records, writers*perWriter)

	ids := make(map[string]bool, len(records))
	for _, rec := range records {
		assert.False(t, ids[rec.ID], "record IDs must be unique")
		ids[rec.ID] = true
	}
}

func TestMemorySink_SnapshotIsACopy(t *testing.T) {
	sink := NewMemorySink()
	sink.Record(Record{Path: "fast"})

	snap := sink.Snapshot()
	snap[0].Path = "mutated"

	assert.Equal(t, "fast", sink.Snapshot()[0].Path)
}

func TestFileSink_WritesOneJSONLinePerRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics", "records.jsonl")
	sink, err := NewFileSink(path, logger.NewTestLogger(t))
	require.NoError(t, err)

	sink.Record(Record{Path: "fast", Reason: "single-entity", Queries: 1, Success: true})
	sink.Record(Record{Path: "slow", Reason: "comparison-language", Success: false, ErrorKind: "orchestration_exhausted"})
	require.NoError(t, sink.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		lines = append(lines, rec)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, lines, 2)
	assert.Equal(t, "fast", lines[0].Path)
	assert.Equal(t, "orchestration_exhausted", lines[1].ErrorKind)
	assert.NotEmpty(t, lines[0].ID)
}

func TestFileSink_AppendsAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.jsonl")
	log := logger.NewTestLogger(t)

	first, err := NewFileSink(path, log)
	require.NoError(t, err)
	first.Record(Record{Path: "fast"})
	require.NoError(t, first.Close())

	second, err := NewFileSink(path, log)
	require.NoError(t, err)
	second.Record(Record{Path: "slow"})
	require.NoError(t, second.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	count := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		count++
	}
	assert.Equal(t, 2, count)
}

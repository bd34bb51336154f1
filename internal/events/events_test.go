package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"go.uber.org/zap"

	"github.com/yourorg/market-dashboard/internal/model"
)

func TestNewProducerSplitsBrokers(t *testing.T) {
	p := NewProducer(" kafka-1:9092, ,kafka-2:9092", "test", zap.NewNop())
	if len(p.brokers) != 2 || p.brokers[0] != "kafka-1:9092" || p.brokers[1] != "kafka-2:9092" {
		t.Errorf("brokers = %v", p.brokers)
	}
}

func TestProducerReusesWriters(t *testing.T) {
	p := NewProducer("localhost:9092", "test", zap.NewNop())
	defer p.Close()

	if p.getWriter("a") != p.getWriter("a") {
		t.Error("writer not reused for the same topic")
	}
	if p.getWriter("a") == p.getWriter("b") {
		t.Error("topics share a writer")
	}
}

func TestDatasetImportedJSON(t *testing.T) {
	event := DatasetImported{
		Kind:             model.DatasetDaily,
		RecordsProcessed: 3,
		DateRange:        model.DateRange{Start: null.StringFrom("2024-01-01"), End: null.StringFrom("2024-01-03")},
		ImportedAt:       time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"kind":"daily","records_processed":3,"date_range":{"start":"2024-01-01","end":"2024-01-03"},"imported_at":"2024-01-04T00:00:00Z"}`
	if string(raw) != want {
		t.Errorf("json = %s\nwant   %s", raw, want)
	}
}

package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestObserveRequest verifies status bucketing and the unmatched-route label.
func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(requestsTotal.WithLabelValues("GET", "unmatched", "4xx"))
	ObserveRequest("GET", "", 404, time.Millisecond)
	after := testutil.ToFloat64(requestsTotal.WithLabelValues("GET", "unmatched", "4xx"))
	if after-before != 1 {
		t.Errorf("requests delta = %v, want 1", after-before)
	}
}

// TestRecordBackup verifies the success watermark and error counter.
func TestRecordBackup(t *testing.T) {
	ts := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	RecordBackup(ts, nil)
	if got := testutil.ToFloat64(lastBackupGauge); got != float64(ts.Unix()) {
		t.Errorf("last backup = %v, want %v", got, ts.Unix())
	}

	before := testutil.ToFloat64(backupsWritten.WithLabelValues("error"))
	RecordBackup(time.Now(), errors.New("disk full"))
	if got := testutil.ToFloat64(backupsWritten.WithLabelValues("error")); got-before != 1 {
		t.Errorf("error delta = %v, want 1", got-before)
	}
	if got := testutil.ToFloat64(lastBackupGauge); got != float64(ts.Unix()) {
		t.Errorf("failed backup moved the watermark to %v", got)
	}
}

// TestRecordIngest verifies matched and skipped counts are split by label.
func TestRecordIngest(t *testing.T) {
	RecordIngest("test", 3, 2)
	if got := testutil.ToFloat64(ingestLines.WithLabelValues("test", "matched")); got != 3 {
		t.Errorf("matched = %v, want 3", got)
	}
	if got := testutil.ToFloat64(ingestLines.WithLabelValues("test", "skipped")); got != 2 {
		t.Errorf("skipped = %v, want 2", got)
	}
}

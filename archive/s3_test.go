package archive

import (
	"testing"
	"time"
)

func TestObjectKey(t *testing.T) {
	run := time.Date(2026, 8, 28, 23, 59, 0, 0, time.UTC)

	got := ObjectKey("resp-key-1.gz", run)
	want := "bloomberg/date=2026-08-28/resp-key-1.gz"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestObjectKeyNormalizesToUTC(t *testing.T) {
	// 02:30 in UTC+7 is still the previous day in UTC.
	loc := time.FixedZone("UTC+7", 7*3600)
	run := time.Date(2026, 8, 28, 2, 30, 0, 0, loc)

	got := ObjectKey("resp-key-1", run)
	want := "bloomberg/date=2026-08-27/resp-key-1"
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestDisabledCollectorIsNil(t *testing.T) {
	collector := NewCollector(Config{Enabled: false})
	if collector != nil {
		t.Fatal("disabled config must produce a nil collector")
	}

	// All record methods must be nil-safe.
	collector.RecordCacheHit("user")
	collector.RecordCacheMiss("user")
	collector.RecordEvictions("user", "ttl_sweep", 3)
	collector.SetCacheEntries("user", 10)
	collector.SetPendingOperations("user", 2)
	collector.RecordReplay("user", 1, 1)
	collector.ObserveOperation("user", "get_all", time.Millisecond)
	collector.SetPressureLevel(2)

	if err := collector.StartServer(); err != nil {
		t.Errorf("nil collector StartServer must be a no-op: %v", err)
	}
}

func TestCollectorExposesMetrics(t *testing.T) {
	collector := NewCollector(Config{Enabled: true, Namespace: "syncstore"})

	collector.RecordCacheHit("user")
	collector.RecordCacheHit("user")
	collector.RecordCacheMiss("user")
	collector.RecordEvictions("user", "pressure_high", 5)
	collector.SetCacheEntries("user", 7)
	collector.SetPendingOperations("user", 3)
	collector.RecordReplay("user", 2, 1)
	collector.ObserveOperation("user", "get_all", 10*time.Millisecond)
	collector.SetPressureLevel(1)

	server := httptest.NewServer(collector.Handler())
	defer server.Close()

	resp, err := server.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := string(raw)

	for _, metric := range []string{
		`syncstore_cache_requests_total{entity="user",outcome="hit"} 2`,
		`syncstore_cache_requests_total{entity="user",outcome="miss"} 1`,
		`syncstore_cache_evictions_total{entity="user",reason="pressure_high"} 5`,
		`syncstore_cache_entries{entity="user"} 7`,
		`syncstore_pending_operations{entity="user"} 3`,
		`syncstore_replay_operations_total{entity="user",outcome="success"} 2`,
		`syncstore_memory_pressure_level 1`,
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("scrape output missing %q", metric)
		}
	}
}

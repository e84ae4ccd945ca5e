package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/kisy/npustat/pkg/engine"
	"github.com/kisy/npustat/pkg/i18n"
	"github.com/kisy/npustat/pkg/metrics"
	"github.com/kisy/npustat/pkg/model"
)

type stubFetcher struct {
	entries int
	block   chan struct{}
}

func (f *stubFetcher) Status(ctx context.Context) (model.DeviceStatus, error) {
	version := "7.3.0"
	return model.DeviceStatus{FirmwareVersion: &version, Loaded: true}, nil
}

func (f *stubFetcher) Entries(ctx context.Context) (model.PpeEntries, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return model.PpeEntries{}, ctx.Err()
		}
	}
	list := make([]model.FlowEntry, f.entries)
	for i := range list {
		state := "BND"
		list[i].State = &state
	}
	return model.PpeEntries{Entries: list}, nil
}

func newTestServer(t *testing.T, f engine.Fetcher) (*httptest.Server, *engine.Engine) {
	t.Helper()
	return newLocalizedServer(t, f, &i18n.Catalog{Locale: "en"})
}

func newLocalizedServer(t *testing.T, f engine.Fetcher, cat *i18n.Catalog) (*httptest.Server, *engine.Engine) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	exporter := metrics.NewExporter(nil)
	eng := engine.New(f, cat.Func(), engine.Options{Logger: log, Observer: exporter})
	exporter.SetSource(eng)
	eng.Mount(context.Background())

	registry := prometheus.NewRegistry()
	registry.MustRegister(exporter)

	mux := http.NewServeMux()
	NewServer(eng, cat.Locale, registry, log).RegisterHandlers(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, eng
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestPage(t *testing.T) {
	srv, _ := newTestServer(t, &stubFetcher{entries: 3})

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		`<html lang="en">`,
		`<title>Airoha NPU Status</title>`,
		`id="ppe-entries-table"`,
		`7.3.0`,
		`Total: 3 | Bound: 3 | Unbound: 0`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	resp, err = http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", resp.StatusCode)
	}
}

func TestPageLocalized(t *testing.T) {
	cat, err := i18n.Builtin("zh_CN")
	if err != nil {
		t.Fatal(err)
	}
	srv, _ := newLocalizedServer(t, &stubFetcher{entries: 1}, cat)

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	for _, want := range []string{
		`<html lang="zh-CN">`,
		"<title>" + cat.T("Airoha NPU Status") + "</title>",
		cat.T("Manual Refresh"),
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestLangTag(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{"", "en"},
		{"en", "en"},
		{"zh_CN", "zh-CN"},
	}
	for _, tt := range tests {
		if got := langTag(tt.locale); got != tt.want {
			t.Errorf("langTag(%q) = %q, want %q", tt.locale, got, tt.want)
		}
	}
}

func TestPanelFragments(t *testing.T) {
	srv, _ := newTestServer(t, &stubFetcher{entries: 2})

	resp, err := http.Get(srv.URL + "/api/panel")
	if err != nil {
		t.Fatal(err)
	}
	var got fragments
	if err := json.Unmarshal([]byte(readBody(t, resp)), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Fragments) != len(patchIDs) {
		t.Errorf("fragments = %d, want %d", len(got.Fragments), len(patchIDs))
	}
	if got.Fragments[engine.IDVersion] != "7.3.0" {
		t.Errorf("version fragment = %q", got.Fragments[engine.IDVersion])
	}
	if n := strings.Count(got.Fragments[engine.IDTable], "<tr"); n != 3 {
		t.Errorf("table rows = %d, want header plus 2", n)
	}
}

func TestRefresh(t *testing.T) {
	srv, _ := newTestServer(t, &stubFetcher{entries: 1})

	resp, err := http.Get(srv.URL + "/api/refresh")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET refresh status = %d, want 405", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/refresh", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST refresh status = %d: %s", resp.StatusCode, body)
	}
	if !strings.Contains(body, `"fragments"`) {
		t.Errorf("refresh reply = %s", body)
	}
}

func TestRefreshBusy(t *testing.T) {
	f := &stubFetcher{entries: 1}
	srv, eng := newTestServer(t, f)
	f.block = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- eng.Refresh(context.Background()) }()
	for !eng.Refreshing() {
		time.Sleep(time.Millisecond)
	}

	resp, err := http.Post(srv.URL+"/api/refresh", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("concurrent refresh status = %d, want 409", resp.StatusCode)
	}

	close(f.block)
	if err := <-done; err != nil {
		t.Errorf("first refresh: %v", err)
	}
}

func TestStatusAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, &stubFetcher{entries: 4})

	resp, err := http.Get(srv.URL + "/api/status")
	if err != nil {
		t.Fatal(err)
	}
	var status struct {
		Counts struct {
			Bound int `json:"bound"`
		} `json:"counts"`
	}
	if err := json.Unmarshal([]byte(readBody(t, resp)), &status); err != nil {
		t.Fatal(err)
	}
	if status.Counts.Bound != 4 {
		t.Errorf("bound = %d, want 4", status.Counts.Bound)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, `npustat_ppe_entries{state="bound"} 4`) {
		t.Errorf("metrics missing bound gauge:\n%s", body)
	}
	if !strings.Contains(body, `npustat_sync_cycles_total{trigger="initial"} 1`) {
		t.Errorf("metrics missing initial cycle counter")
	}
}

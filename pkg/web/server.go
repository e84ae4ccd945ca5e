package web

import (
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/kisy/npustat/pkg/engine"
	"github.com/kisy/npustat/pkg/viewmodel"
)

//go:embed panel.html
var pageContent string

var pageTemplate = template.Must(template.New("panel").Parse(pageContent))

// patchIDs are the elements the page swaps on every update.
var patchIDs = []string{
	engine.IDVersion,
	engine.IDStatus,
	engine.IDClock,
	engine.IDMemory,
	engine.IDOffload,
	engine.IDSummary,
	engine.IDTable,
}

type Server struct {
	eng      *engine.Engine
	lang     string
	gatherer prometheus.Gatherer
	log      logrus.FieldLogger
}

// NewServer serves the panel of eng in the language of locale. A nil
// gatherer disables /metrics.
func NewServer(eng *engine.Engine, locale string, gatherer prometheus.Gatherer, log logrus.FieldLogger) *Server {
	return &Server{eng: eng, lang: langTag(locale), gatherer: gatherer, log: log}
}

// langTag turns a catalog locale ("zh_CN") into an html lang tag ("zh-CN").
func langTag(locale string) string {
	if locale == "" {
		return "en"
	}
	return strings.ReplaceAll(locale, "_", "-")
}

type fragments struct {
	Version   uint64            `json:"version"`
	Fragments map[string]string `json:"fragments"`
}

func (s *Server) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		surf := s.eng.Surface()
		if surf == nil {
			http.Error(w, "panel not ready", http.StatusServiceUnavailable)
			return
		}
		tr := s.eng.Tr()
		data := struct {
			Lang       string
			Title      string
			Panel      template.HTML
			IDs        []string
			Version    uint64
			RefreshID  string
			BusyLabel  string
			IdleLabel  string
			IntervalMs int64
		}{
			Lang:       s.lang,
			Title:      tr("Airoha NPU Status"),
			Panel:      template.HTML(surf.HTML()),
			IDs:        patchIDs,
			Version:    surf.Version(),
			RefreshID:  engine.IDRefresh,
			BusyLabel:  tr("Refreshing..."),
			IdleLabel:  tr("Manual Refresh"),
			IntervalMs: s.eng.Interval().Milliseconds(),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTemplate.Execute(w, data); err != nil {
			s.log.WithError(err).Error("Rendering panel page")
		}
	})

	mux.HandleFunc("/api/panel", func(w http.ResponseWriter, r *http.Request) {
		s.writeFragments(w)
	})

	mux.HandleFunc("/api/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		err := s.eng.Refresh(r.Context())
		switch {
		case errors.Is(err, engine.ErrRefreshBusy):
			http.Error(w, err.Error(), http.StatusConflict)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		s.writeFragments(w)
	})

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		vm, updated := s.eng.Snapshot()
		w.Header().Set("Content-Type", "application/json")
		response := struct {
			Updated time.Time `json:"updated"`
			viewmodel.ViewModel
		}{
			Updated:   updated,
			ViewModel: vm,
		}
		json.NewEncoder(w).Encode(response)
	})

	if s.gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}

func (s *Server) writeFragments(w http.ResponseWriter) {
	surf := s.eng.Surface()
	if surf == nil {
		http.Error(w, "panel not ready", http.StatusServiceUnavailable)
		return
	}
	resp := fragments{Version: surf.Version(), Fragments: make(map[string]string, len(patchIDs))}
	for _, id := range patchIDs {
		if html, ok := surf.InnerHTML(id); ok {
			resp.Fragments[id] = html
		}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Package server serves the generated pages and metrics while the CLI runs
// in watch mode.
package server

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const filesPrefix = "/dashboard/"

// Options configures the server.
type Options struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	// Pages are the generated files, served by base name. The first one is
	// the index. Nothing else on disk is reachable.
	Pages []string
}

// New returns an unstarted server.
func New(opts Options, gatherer prometheus.Gatherer) *http.Server {
	return &http.Server{
		Addr:              opts.Addr,
		Handler:           NewHandler(opts, gatherer),
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}
}

// NewHandler builds the routes:
//
//	GET /                  redirect to the index page
//	GET /dashboard/:name   one of the generated pages
//	GET /metrics           Prometheus exposition
//	GET /healthz           liveness
func NewHandler(opts Options, gatherer prometheus.Gatherer) http.Handler {
	router := httprouter.New()

	pages := make(map[string]string, len(opts.Pages))
	var index string
	for _, p := range opts.Pages {
		name := filepath.Base(p)
		if _, ok := pages[name]; ok {
			continue
		}
		if index == "" {
			index = name
		}
		pages[name] = p
	}

	if index != "" {
		router.GET("/", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
			http.Redirect(w, r, filesPrefix+index, http.StatusFound)
		})
	}
	router.GET(filesPrefix+":name", func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		p, ok := pages[ps.ByName("name")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		servePage(w, r, p)
	})
	router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.GET("/healthz", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	return withLogger(router)
}

// servePage answers 404 until the page has been generated.
func servePage(w http.ResponseWriter, r *http.Request, path string) {
	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil || st.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, st.Name(), st.ModTime(), f)
}

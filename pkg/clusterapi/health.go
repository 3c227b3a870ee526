package clusterapi

import (
	"context"
	"net/http"
	"time"

	"github.com/cuemby/protobase/pkg/cache"
	"github.com/cuemby/protobase/pkg/metrics"
	"github.com/cuemby/protobase/pkg/storage"
)

// leaderChecker is implemented by storage.BlockProvider adapters that have
// a notion of cluster leadership (pkg/cluster.Provider). A plain
// FileBlockProvider doesn't, and readyHandler treats that as "always
// ready" for the raft check.
type leaderChecker interface {
	IsLeader() bool
	Leader() string
}

// HealthServer serves liveness/readiness/metrics over plain HTTP, grounded
// on cuemby-warren/pkg/api/health.go's HealthServer reduced from Warren's
// manager-wide checks (raft, storage, event broker) to the one provider
// this package fronts. Every request re-derives raft and storage health
// and feeds it into pkg/metrics' HealthChecker, so /health and /ready
// reflect the same component registry the rest of the process reports
// through.
type HealthServer struct {
	provider  storage.BlockProvider
	mux       *http.ServeMux
	collector *metrics.Collector
	http      *http.Server
}

// NewHealthServer builds a HealthServer fronting provider. caches may be
// nil, in which case cache size metrics are not collected.
func NewHealthServer(provider storage.BlockProvider, caches *cache.AtomCache) *HealthServer {
	hs := &HealthServer{provider: provider, mux: http.NewServeMux()}
	hs.mux.HandleFunc("/health", hs.healthHandler)
	hs.mux.HandleFunc("/ready", hs.readyHandler)
	hs.mux.Handle("/metrics", metrics.Handler())

	if caches != nil {
		hs.collector = metrics.NewCollector(map[string]metrics.StatsSource{
			"atom_bytes":  caches.ByteCache,
			"atom_object": caches.Object,
		})
	}
	return hs
}

// Start begins serving on addr, blocking until the server stops or errors.
// It also starts the cache-size collector, if one was configured.
func (hs *HealthServer) Start(addr string) error {
	if hs.collector != nil {
		hs.collector.Start(15 * time.Second)
	}
	hs.http = &http.Server{
		Addr:         addr,
		Handler:      hs.mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	err := hs.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the HTTP server and the cache collector.
func (hs *HealthServer) Stop(ctx context.Context) error {
	if hs.collector != nil {
		hs.collector.Stop()
	}
	if hs.http == nil {
		return nil
	}
	return hs.http.Shutdown(ctx)
}

func (hs *HealthServer) GetHandler() http.Handler { return hs.mux }

// refreshComponents re-derives raft and storage health and records it in
// pkg/metrics' component registry, which HealthHandler/ReadyHandler then
// report from.
func (hs *HealthServer) refreshComponents(ctx context.Context) {
	if lc, ok := hs.provider.(leaderChecker); ok {
		if lc.IsLeader() {
			metrics.RegisterComponent("raft", true, "leader")
		} else if addr := lc.Leader(); addr != "" {
			metrics.RegisterComponent("raft", true, "follower (leader: "+addr+")")
		} else {
			metrics.RegisterComponent("raft", false, "no leader elected")
		}
	} else {
		metrics.RegisterComponent("raft", true, "not clustered")
	}

	rctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, _, err := hs.provider.GetCurrentRoot(rctx); err != nil {
		metrics.RegisterComponent("storage", false, err.Error())
	} else {
		metrics.RegisterComponent("storage", true, "ok")
	}
}

func (hs *HealthServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	hs.refreshComponents(r.Context())
	metrics.HealthHandler()(w, r)
}

func (hs *HealthServer) readyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	hs.refreshComponents(r.Context())
	metrics.ReadyHandler()(w, r)
}

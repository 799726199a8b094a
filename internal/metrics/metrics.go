package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Metrics struct {
	ChatRequests    prometheus.Counter
	StreamRequests  prometheus.Counter
	StreamFragments prometheus.Counter
	ProviderErrors  *prometheus.CounterVec
}

var (
	once   sync.Once
	global *Metrics
)

func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			ChatRequests: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "openchatllm",
				Name:      "chat_requests_total",
				Help:      "Total single-shot chat requests",
			}),
			StreamRequests: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "openchatllm",
				Name:      "stream_requests_total",
				Help:      "Total streaming chat requests",
			}),
			StreamFragments: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "openchatllm",
				Name:      "stream_fragments_total",
				Help:      "Total fragments relayed to clients",
			}),
			ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "openchatllm",
				Name:      "provider_errors_total",
				Help:      "Total upstream provider failures",
			}, []string{"provider"}),
		}
		prometheus.MustRegister(global.ChatRequests, global.StreamRequests, global.StreamFragments, global.ProviderErrors)
	})
	return global
}

// Serve exposes /metrics on its own listener so scrapes never compete with
// long-lived SSE responses.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("metrics listener stopped")
	}
}

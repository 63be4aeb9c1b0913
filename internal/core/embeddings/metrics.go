package embeddings

import (
	"time"

	"github.com/haimeda/statement-scorer/internal/platform/observability"
)

const (
	metricStatusOK    = "success"
	metricStatusError = "error"
)

// recordEncode records one provider call: latency always, the text count only on success.
func recordEncode(provider ProviderName, model string, texts int, elapsed time.Duration, err error) {
	name := string(provider)

	observability.EmbeddingLatency.WithLabelValues(name, model).Observe(elapsed.Seconds())

	if err != nil {
		observability.EmbeddingRequests.WithLabelValues(name, model, metricStatusError).Inc()
		return
	}

	observability.EmbeddingRequests.WithLabelValues(name, model, metricStatusOK).Inc()

	if texts > 0 {
		observability.EmbeddingTexts.WithLabelValues(name, model).Add(float64(texts))
	}
}

func setProviderAvailable(provider string, available bool) {
	var v float64
	if available {
		v = 1
	}

	observability.EmbeddingProviderAvailable.WithLabelValues(provider).Set(v)
}

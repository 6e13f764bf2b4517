package recall

import "github.com/Jegankumard/OptGiftAI/pkg/metrics"

func observeFallback(policy, reason string) {
	metrics.RecordFallback(policy, reason)
}

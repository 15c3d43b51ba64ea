package httputil

import "time"

// Timeouts named in spec 4.1 ("Behavioral requirements") and 5
// ("Cancellation and timeouts").
const (
	listPageTimeout    = 15 * time.Second
	detailPageTimeout  = 5 * time.Second
	riskServiceTimeout = 30 * time.Second

	// DetailBatchSize and DetailBatchDelay bound detail-page enrichment
	// concurrency (spec 4.1: "default 5 parallel, 200 ms inter-batch delay").
	DetailBatchSize  = 5
	DetailBatchDelay = 200 * time.Millisecond

	// AdapterDeadline is the parent deadline per adapter for one run
	// (spec 5: "default 120 s per adapter").
	AdapterDeadline = 120 * time.Second
)

package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "greenvalve_ingest_messages_total",
		Help: "Readings appended to the store, by stream.",
	}, []string{"stream"})

	decodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenvalve_ingest_decode_failures_total",
		Help: "Inbound messages dropped because the payload did not decode.",
	})

	duplicatesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenvalve_ingest_duplicates_total",
		Help: "QoS 1 redeliveries dropped by the deduper.",
	})

	storeErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "greenvalve_ingest_store_errors_total",
		Help: "Appends that failed because the store was unavailable.",
	})
)

package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var namespace = "journal"

var (
	// ReaderFramesTotal counts frames consumed by a reader, by type.
	ReaderFramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reader",
		Name:      "frames_total",
		Help:      "Frames consumed from the journal, partitioned by message type",
	}, []string{"type"})

	// ReaderBytesTotal counts frame bytes consumed by a reader.
	ReaderBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reader",
		Name:      "bytes_total",
		Help:      "Frame bytes consumed from the journal",
	})

	// ReaderLatency stores the gen-to-dispatch latency per frame.
	ReaderLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "reader",
		Name:      "latency_nanoseconds",
		Help:      "Per-frame latency from generation to dispatch",
		Buckets:   prometheus.ExponentialBuckets(1000, 4, 11),
	})

	// ReaderRemapsTotal counts mapping refreshes after journal growth.
	ReaderRemapsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reader",
		Name:      "remaps_total",
		Help:      "Mapping refreshes after the journal file grew",
	})

	// WriterFramesTotal counts frames appended by a writer, by type.
	WriterFramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "writer",
		Name:      "frames_total",
		Help:      "Frames appended to the journal, partitioned by message type",
	}, []string{"type"})

	// WriterGrowsTotal counts journal capacity doublings.
	WriterGrowsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "writer",
		Name:      "grows_total",
		Help:      "Journal capacity doublings",
	})
)

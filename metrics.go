package postlabel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var postsModerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "postlabel_posts_moderated_total",
	Help: "Number of moderation calls, by outcome (labeled, clean, unavailable)",
}, []string{"outcome"})

var labelsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "postlabel_labels_applied_total",
	Help: "Number of labels returned, by label value",
}, []string{"label"})

var imageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "postlabel_image_failures_total",
	Help: "Number of attached images that could not be checked, by stage",
}, []string{"stage"})

var imageHashDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "postlabel_image_hash_duration_sec",
	Help: "Duration of downloading, decoding and hashing one attached image",
})

var imageCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "postlabel_image_cache_lookups_total",
	Help: "Number of image hash cache lookups, by result (hit, miss)",
}, []string{"result"})

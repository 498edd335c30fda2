package postlabel

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNoPostFetcher is logged by Moderate when Config.Posts is nil.
var ErrNoPostFetcher = errors.New("postlabel: no post fetcher configured")

// Moderate fetches the post at postURL and returns its labels in lexical
// order. A post that cannot be fetched yields an empty result, not an error;
// the failure is only logged. Calls share no state.
func (cfg *Config) Moderate(ctx context.Context, postURL string) []string {
	cfg = cfg.withDefaults()

	if cfg.Posts == nil {
		slog.Error("postlabel: cannot moderate", "url", postURL, "error", ErrNoPostFetcher.Error())
		postsModerated.WithLabelValues("unavailable").Inc()
		return []string{}
	}

	post, err := cfg.Posts.FetchPost(ctx, postURL)
	if err != nil || post == nil {
		if err != nil {
			slog.Warn("postlabel: post unavailable", "url", postURL, "error", err.Error())
		}
		postsModerated.WithLabelValues("unavailable").Inc()
		return []string{}
	}

	labels := cfg.ModeratePost(ctx, post).Sorted()

	outcome := "clean"
	if len(labels) > 0 {
		outcome = "labeled"
	}
	postsModerated.WithLabelValues(outcome).Inc()
	for _, l := range labels {
		labelsApplied.WithLabelValues(l).Inc()
	}
	slog.Debug("postlabel: moderated", "url", postURL, "uri", post.URI, "labels", labels)

	return labels
}

// ModeratePost runs the text and image matchers on an already fetched post.
// Image matching, the most expensive step, is skipped once a decisive label
// is present.
func (cfg *Config) ModeratePost(ctx context.Context, post *Post) LabelSet {
	cfg = cfg.withDefaults()

	if post == nil {
		return LabelSet{}
	}

	labels := cfg.matchText(post.Text, post.Links)
	if cfg.skipImages(labels) {
		slog.Debug("postlabel: skipping image match", "uri", post.URI)
		return labels
	}

	labels.Merge(cfg.MatchImages(ctx, post.ImageURLs()))
	return labels
}

func (cfg *Config) skipImages(labels LabelSet) bool {
	if cfg.SkipImagesOnAnyLabel {
		return labels.Len() > 0
	}
	return labels.Has(TrustSafetyLabel) || labels.Has(DogLabel)
}

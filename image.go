package postlabel

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/corona10/goimagehash"
)

// MatchImages hashes up to cfg.MaxImages of sources, in order, and returns
// {DogLabel} as soon as one is within cfg.MaxDistance of a reference hash.
// An image that cannot be fetched or decoded counts as no match; the scan
// always continues with the next source.
func (cfg *Config) MatchImages(ctx context.Context, sources []string) LabelSet {
	cfg = cfg.withDefaults()

	labels := LabelSet{}
	refs := cfg.Data.ReferenceHashes()
	if len(refs) == 0 {
		return labels
	}

	if len(sources) > cfg.MaxImages {
		sources = sources[:cfg.MaxImages]
	}

	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}

		h, err := cfg.imageHash(ctx, src)
		if err != nil {
			slog.Warn("postlabel: image check failed", "url", src, "error", err.Error())
			continue
		}

		matched := MatchesReference(h, refs, cfg.MaxDistance)
		slog.Debug("postlabel: image checked", "url", src, "max_distance", cfg.MaxDistance, "match", matched)
		if matched {
			labels.Add(DogLabel)
			return labels
		}
	}

	return labels
}

// imageHash returns the perceptual hash of the image at url, from the cache
// when possible. Failures are counted by stage.
func (cfg *Config) imageHash(ctx context.Context, url string) (*goimagehash.ImageHash, error) {
	key := hashKey("phash", url)
	if cfg.Cache != nil {
		if v, ok := cfg.Cache.Get(ctx, key); ok {
			imageCacheLookups.WithLabelValues("hit").Inc()
			return goimagehash.NewImageHash(v, goimagehash.PHash), nil
		}
		imageCacheLookups.WithLabelValues("miss").Inc()
	}

	start := time.Now()
	defer func() { imageHashDuration.Observe(time.Since(start).Seconds()) }()

	res, err := cfg.Download(ctx, url, DownloadOpts{})
	if err != nil {
		imageFailures.WithLabelValues("fetch").Inc()
		return nil, err
	}

	h, err := HashImageData(res.Data, cfg.MaxImagePixels)
	if err != nil {
		stage := "decode"
		if errors.Is(err, ErrImageTooLarge) {
			stage = "too_large"
		}
		imageFailures.WithLabelValues(stage).Inc()
		return nil, err
	}

	if cfg.Cache != nil {
		cfg.Cache.Set(ctx, key, h.GetHash())
	}
	return h, nil
}

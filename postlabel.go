package postlabel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// Built-in labels. Citation labels are data-driven and come from the
// Source column of the news-domain table.
const (
	TrustSafetyLabel = "t-and-s"
	DogLabel         = "dog"
)

const (
	// DefaultMaxDistance is the largest pHash Hamming distance (out of 64 bits)
	// still treated as a match against a reference image: 0.3 of the hash width.
	DefaultMaxDistance = 19

	// HashBits is the width of a perceptual hash and the largest possible distance.
	HashBits = 64

	// DefaultMaxImages caps how many attached images are hashed per post.
	// Bluesky allows at most four images per post.
	DefaultMaxImages = 4

	// DefaultMaxImagePixels rejects images whose decoded size would exceed
	// this many pixels, before the full decode.
	DefaultMaxImagePixels = 40_000_000
)

// PostFetcher resolves a post by its web URL.
type PostFetcher interface {
	FetchPost(ctx context.Context, postURL string) (*Post, error)
}

// HashCache caches perceptual hashes by cache key (see hashKey).
type HashCache interface {
	Get(ctx context.Context, key string) (uint64, bool)
	Set(ctx context.Context, key string, hash uint64)
}

// Config holds all dependencies injected by the consumer.
type Config struct {
	Data       *ReferenceData // required: loaded reference tables and hashes
	Posts      PostFetcher    // required for Moderate
	Cache      HashCache      // optional: image hash cache (nil = no caching)
	HTTPClient *http.Client   // optional: client for image downloads (nil = http.DefaultClient)
	UserAgent  string         // default: "Mozilla/5.0 (compatible; go-postlabel/1.0)"

	MaxDistance    int           // 0 = identical hashes only; negative = DefaultMaxDistance
	MaxImages      int           // default: DefaultMaxImages
	MaxImagePixels int           // default: DefaultMaxImagePixels
	ImageTimeout   time.Duration // per-image download timeout (default: 10s)
	MaxImageBytes  int64         // per-image body cap (default: 5MB)

	// SkipImagesOnAnyLabel skips image matching once any text label was found,
	// including citation labels. By default only TrustSafetyLabel skips it.
	SkipImagesOnAnyLabel bool
}

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("postlabel: invalid config")

// Validate reports settings that cannot be honored.
func (c *Config) Validate() error {
	if c.MaxDistance > HashBits {
		return fmt.Errorf("%w: max distance %d exceeds %d hash bits", ErrInvalidConfig, c.MaxDistance, HashBits)
	}
	return nil
}

// withDefaults returns a copy of c with unset fields filled in. The receiver
// is never written, so one Config can serve concurrent calls.
func (c *Config) withDefaults() *Config {
	out := *c
	if out.MaxDistance < 0 {
		out.MaxDistance = DefaultMaxDistance
	}
	if out.MaxImages <= 0 {
		out.MaxImages = DefaultMaxImages
	}
	if out.MaxImagePixels <= 0 {
		out.MaxImagePixels = DefaultMaxImagePixels
	}
	if out.ImageTimeout <= 0 {
		out.ImageTimeout = defaultTimeout
	}
	if out.MaxImageBytes <= 0 {
		out.MaxImageBytes = defaultMaxBytes
	}
	if out.UserAgent == "" {
		out.UserAgent = "Mozilla/5.0 (compatible; go-postlabel/1.0)"
	}
	if out.HTTPClient == nil {
		out.HTTPClient = http.DefaultClient
	}
	if out.Data == nil {
		out.Data = emptyReferenceData
	}
	return &out
}

var emptyReferenceData = NewReferenceData(nil, nil, nil, nil)

// LabelSet is the set of labels attached to one post.
type LabelSet map[string]struct{}

// Add inserts label; empty labels are ignored.
func (s LabelSet) Add(label string) {
	if label == "" {
		return
	}
	s[label] = struct{}{}
}

// Has reports whether label is in the set.
func (s LabelSet) Has(label string) bool {
	_, ok := s[label]
	return ok
}

// Merge adds every label of other.
func (s LabelSet) Merge(other LabelSet) {
	for l := range other {
		s[l] = struct{}{}
	}
}

// Len returns the number of labels.
func (s LabelSet) Len() int { return len(s) }

// Sorted returns the labels in lexical order. Never nil.
func (s LabelSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

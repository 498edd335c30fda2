package postlabel

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// PostCollection is the NSID of post records.
const PostCollection = "app.bsky.feed.post"

// ErrInvalidPostURL is returned by ParsePostURL for URLs that do not name a post.
var ErrInvalidPostURL = errors.New("postlabel: invalid post URL")

// PostRef identifies a post by its author (handle or DID) and record key.
type PostRef struct {
	Actor string
	RKey  string
}

// IsDID reports whether Actor is already a DID rather than a handle.
func (r PostRef) IsDID() bool {
	return strings.HasPrefix(r.Actor, "did:")
}

// ATURI returns the at:// URI of the post record.
func (r PostRef) ATURI() string {
	return "at://" + r.Actor + "/" + PostCollection + "/" + r.RKey
}

// ParsePostURL accepts a web URL of the form
// https://bsky.app/profile/<handle-or-did>/post/<rkey> or an at:// post URI.
func ParsePostURL(raw string) (PostRef, error) {
	raw = strings.TrimSpace(raw)

	if rest, ok := strings.CutPrefix(raw, "at://"); ok {
		parts := strings.Split(strings.TrimRight(rest, "/"), "/")
		if len(parts) != 3 || parts[1] != PostCollection {
			return PostRef{}, fmt.Errorf("%w: %q", ErrInvalidPostURL, raw)
		}
		return newPostRef(raw, parts[0], parts[2])
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return PostRef{}, fmt.Errorf("%w: %q", ErrInvalidPostURL, raw)
	}
	// "/profile/<actor>/post/<rkey>": the 4th and 6th segments of the full URL.
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) != 4 || segs[0] != "profile" || segs[2] != "post" {
		return PostRef{}, fmt.Errorf("%w: %q", ErrInvalidPostURL, raw)
	}
	return newPostRef(raw, segs[1], segs[3])
}

func newPostRef(raw, actor, rkey string) (PostRef, error) {
	if actor == "" || rkey == "" {
		return PostRef{}, fmt.Errorf("%w: %q", ErrInvalidPostURL, raw)
	}
	if !strings.HasPrefix(actor, "did:") {
		// Handles are case-insensitive.
		actor = strings.ToLower(actor)
	}
	return PostRef{Actor: actor, RKey: rkey}, nil
}

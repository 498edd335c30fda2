package postlabel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// DefaultAppViewHost is the public, unauthenticated Bluesky AppView.
const DefaultAppViewHost = "https://public.api.bsky.app"

// ErrPostNotFound is returned when the AppView has no such post.
var ErrPostNotFound = errors.New("postlabel: post not found")

// Client is a minimal read-only AppView client that implements PostFetcher.
type Client struct {
	host       string
	httpClient *http.Client
}

// NewClient creates an AppView client. If host is empty it defaults to
// DefaultAppViewHost; if httpClient is nil it uses NewHTTPClient().
func NewClient(host string, httpClient *http.Client) *Client {
	if host == "" {
		host = DefaultAppViewHost
	}
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	return &Client{
		host:       strings.TrimRight(host, "/"),
		httpClient: httpClient,
	}
}

// FetchPost resolves the post named by postURL (web URL or at:// URI).
func (c *Client) FetchPost(ctx context.Context, postURL string) (*Post, error) {
	ref, err := ParsePostURL(postURL)
	if err != nil {
		return nil, err
	}

	if !ref.IsDID() {
		did, err := c.ResolveHandle(ctx, ref.Actor)
		if err != nil {
			return nil, fmt.Errorf("resolve handle %s: %w", ref.Actor, err)
		}
		ref.Actor = did
	}

	var resp getPostsResponse
	params := url.Values{"uris": []string{ref.ATURI()}}
	if err := c.get(ctx, "app.bsky.feed.getPosts", params, &resp); err != nil {
		return nil, fmt.Errorf("get posts: %w", err)
	}
	if len(resp.Posts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPostNotFound, ref.ATURI())
	}

	return resp.Posts[0].toPost(), nil
}

// ResolveHandle returns the DID registered for handle.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	var resp resolveHandleResponse
	params := url.Values{"handle": []string{handle}}
	if err := c.get(ctx, "com.atproto.identity.resolveHandle", params, &resp); err != nil {
		return "", err
	}
	if !strings.HasPrefix(resp.DID, "did:") {
		return "", fmt.Errorf("unexpected DID %q", resp.DID)
	}
	return resp.DID, nil
}

func (c *Client) get(ctx context.Context, method string, params url.Values, result any) error {
	endpoint := c.host + "/xrpc/" + method + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

type resolveHandleResponse struct {
	DID string `json:"did"`
}

type getPostsResponse struct {
	Posts []postView `json:"posts"`
}

// postView is the subset of app.bsky.feed.defs#postView the labeler reads.
type postView struct {
	URI    string     `json:"uri"`
	Record postRecord `json:"record"`
	Embed  *embedView `json:"embed,omitempty"`
}

type postRecord struct {
	Text   string  `json:"text"`
	Facets []facet `json:"facets,omitempty"`
}

type facet struct {
	Features []facetFeature `json:"features"`
}

type facetFeature struct {
	Type string `json:"$type"`
	URI  string `json:"uri,omitempty"`
}

// embedView covers the images, external, record and recordWithMedia views.
type embedView struct {
	Type     string          `json:"$type"`
	Images   []imageView     `json:"images,omitempty"`
	External *externalView   `json:"external,omitempty"`
	Record   json.RawMessage `json:"record,omitempty"`
	Media    *embedView      `json:"media,omitempty"`
}

type imageView struct {
	Thumb    string `json:"thumb"`
	Fullsize string `json:"fullsize"`
	Alt      string `json:"alt"`
}

type externalView struct {
	URI string `json:"uri"`
}

// recordView is either a viewRecord (uri set) or a record#view wrapping one.
type recordView struct {
	URI    string          `json:"uri"`
	Record json.RawMessage `json:"record"`
}

const (
	embedImagesView          = "app.bsky.embed.images#view"
	embedExternalView        = "app.bsky.embed.external#view"
	embedRecordView          = "app.bsky.embed.record#view"
	embedRecordWithMediaView = "app.bsky.embed.recordWithMedia#view"
	facetLink                = "app.bsky.richtext.facet#link"
)

func (v *postView) toPost() *Post {
	p := &Post{
		URI:  v.URI,
		Text: v.Record.Text,
	}
	if v.Embed != nil {
		p.Embed = v.Embed.toEmbed()
	}

	links := ExtractLinks(p.Text)
	for _, f := range v.Record.Facets {
		for _, feat := range f.Features {
			if feat.Type == facetLink && feat.URI != "" {
				links = append(links, feat.URI)
			}
		}
	}
	if p.Embed.ExternalURI != "" {
		links = append(links, p.Embed.ExternalURI)
	}
	p.Links = DedupeStrings(links)
	return p
}

func (v *embedView) toEmbed() Embed {
	switch v.Type {
	case embedImagesView:
		e := Embed{Kind: EmbedImages}
		for _, img := range v.Images {
			e.Images = append(e.Images, EmbedImage{Fullsize: img.Fullsize, Thumb: img.Thumb, Alt: img.Alt})
		}
		return e
	case embedExternalView:
		if v.External == nil {
			return Embed{}
		}
		return Embed{Kind: EmbedExternal, ExternalURI: v.External.URI}
	case embedRecordView:
		return Embed{Kind: EmbedQuote, QuotedURI: quotedURI(v.Record)}
	case embedRecordWithMediaView:
		e := Embed{Kind: EmbedQuote, QuotedURI: quotedURI(v.Record)}
		if v.Media != nil {
			m := v.Media.toEmbed()
			e.Images = m.Images
			e.ExternalURI = m.ExternalURI
		}
		return e
	default:
		return Embed{}
	}
}

// quotedURI digs the quoted post URI out of a record or record#view payload.
func quotedURI(raw json.RawMessage) string {
	for range 2 {
		if len(raw) == 0 {
			return ""
		}
		var rv recordView
		if err := json.Unmarshal(raw, &rv); err != nil {
			return ""
		}
		if rv.URI != "" {
			return rv.URI
		}
		raw = rv.Record
	}
	return ""
}

package postlabel

// EmbedKind tags the variant held by an Embed.
type EmbedKind int

const (
	EmbedNone     EmbedKind = iota // no embed
	EmbedImages                    // attached images
	EmbedExternal                  // link card
	EmbedQuote                     // quoted post, possibly with media
)

func (k EmbedKind) String() string {
	switch k {
	case EmbedImages:
		return "images"
	case EmbedExternal:
		return "external"
	case EmbedQuote:
		return "quote"
	default:
		return "none"
	}
}

// EmbedImage is one attached image as served by the AppView CDN.
type EmbedImage struct {
	Fullsize string
	Thumb    string
	Alt      string
}

// Embed is the media attached to a post. Which fields are set depends on Kind:
// Images for EmbedImages (and a quote with media), ExternalURI for
// EmbedExternal, QuotedURI for EmbedQuote.
type Embed struct {
	Kind        EmbedKind
	Images      []EmbedImage
	ExternalURI string
	QuotedURI   string
}

// Post is a fetched post. It is not modified after construction.
type Post struct {
	URI   string // AT-URI
	Text  string
	Links []string // text links, then link facets, then the external embed
	Embed Embed
}

// ImageURLs returns the URL of every attached image, preferring the fullsize
// rendition over the thumbnail.
func (p *Post) ImageURLs() []string {
	if p == nil {
		return nil
	}
	var out []string
	for _, img := range p.Embed.Images {
		switch {
		case img.Fullsize != "":
			out = append(out, img.Fullsize)
		case img.Thumb != "":
			out = append(out, img.Thumb)
		}
	}
	return out
}

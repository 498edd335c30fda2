package postlabel

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/corona10/goimagehash"
)

// Reference file names inside the input directory.
const (
	NewsDomainsFile    = "news-domains.csv"
	FlaggedDomainsFile = "t-and-s-domains.csv"
	FlaggedWordsFile   = "t-and-s-words.csv"
	ReferenceImagesDir = "dog-list-images"
)

// ErrReferenceData wraps every reference loading failure. It is a
// configuration error: callers should abort startup.
var ErrReferenceData = errors.New("postlabel: invalid reference data")

// ReferenceData holds the preloaded lookup tables. It is never mutated after
// construction and is safe for concurrent reads.
type ReferenceData struct {
	newsDomains    map[string]string
	flaggedDomains map[string]struct{}
	flaggedWords   map[string]struct{}
	terms          []string // flagged words in load order
	hashes         []*goimagehash.ImageHash
}

// NewReferenceData builds a store from in-memory tables. Domains are passed
// through CanonicalDomain and words through foldText; blank entries are dropped.
func NewReferenceData(news map[string]string, domains, words []string, hashes []*goimagehash.ImageHash) *ReferenceData {
	rd := &ReferenceData{
		newsDomains:    make(map[string]string, len(news)),
		flaggedDomains: make(map[string]struct{}, len(domains)),
		flaggedWords:   make(map[string]struct{}, len(words)),
	}

	// Sorted so that colliding keys resolve the same way on every load.
	keys := make([]string, 0, len(news))
	for k := range news {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		d := CanonicalDomain(k)
		category := strings.ToLower(strings.TrimSpace(news[k]))
		if d == "" || category == "" {
			continue
		}
		rd.newsDomains[d] = category
	}

	for _, raw := range domains {
		if d := CanonicalDomain(raw); d != "" {
			rd.flaggedDomains[d] = struct{}{}
		}
	}

	for _, raw := range words {
		w := foldText(strings.TrimSpace(raw))
		if w == "" {
			continue
		}
		if _, dup := rd.flaggedWords[w]; dup {
			continue
		}
		rd.flaggedWords[w] = struct{}{}
		rd.terms = append(rd.terms, w)
	}

	for _, h := range hashes {
		if h != nil {
			rd.hashes = append(rd.hashes, h)
		}
	}
	return rd
}

// SourceCategory returns the citation category for domain. domain may be a
// URL or a bare host; it is canonicalized and looked up exactly, so
// subdomains of a news site are not cited.
func (rd *ReferenceData) SourceCategory(domain string) (string, bool) {
	c, ok := rd.newsDomains[CanonicalDomain(domain)]
	return c, ok
}

// IsFlaggedDomain reports whether domain (a URL or a bare host) is a flagged
// domain or a subdomain of one, as decided by DomainMatches. Only the parent
// suffixes of domain are looked up.
func (rd *ReferenceData) IsFlaggedDomain(domain string) bool {
	domain = CanonicalDomain(domain)
	for d := domain; d != ""; {
		if _, ok := rd.flaggedDomains[d]; ok && DomainMatches(domain, d) {
			return true
		}
		_, rest, found := strings.Cut(d, ".")
		if !found {
			return false
		}
		d = rest
	}
	return false
}

// IsFlaggedWord reports whether token (already folded) is a flagged term.
func (rd *ReferenceData) IsFlaggedWord(token string) bool {
	_, ok := rd.flaggedWords[token]
	return ok
}

// FlaggedTerms returns the flagged terms in load order.
func (rd *ReferenceData) FlaggedTerms() []string {
	return rd.terms
}

// ReferenceHashes returns the perceptual hashes of the reference images.
func (rd *ReferenceData) ReferenceHashes() []*goimagehash.ImageHash {
	return rd.hashes
}

// LoadReferenceData reads the reference tables and images from dir. Any
// missing file, missing column, short row or undecodable image is an error
// wrapping ErrReferenceData.
func LoadReferenceData(dir string) (*ReferenceData, error) {
	news := map[string]string{}
	err := readCSV(filepath.Join(dir, NewsDomainsFile), []string{"Domain", "Source"}, func(row []string) {
		news[row[0]] = row[1]
	})
	if err != nil {
		return nil, err
	}

	var domains []string
	err = readCSV(filepath.Join(dir, FlaggedDomainsFile), []string{"Domain"}, func(row []string) {
		domains = append(domains, row[0])
	})
	if err != nil {
		return nil, err
	}

	var words []string
	err = readCSV(filepath.Join(dir, FlaggedWordsFile), []string{"Word"}, func(row []string) {
		words = append(words, row[0])
	})
	if err != nil {
		return nil, err
	}

	hashes, err := loadReferenceHashes(filepath.Join(dir, ReferenceImagesDir))
	if err != nil {
		return nil, err
	}

	return NewReferenceData(news, domains, words, hashes), nil
}

// readCSV calls fn with the values of columns, in order, for every data row.
func readCSV(path string, columns []string, fn func(row []string)) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReferenceData, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("%w: %s: read header: %w", ErrReferenceData, path, err)
	}

	idx := make([]int, len(columns))
	for i, col := range columns {
		idx[i] = -1
		for j, h := range header {
			// Strip a UTF-8 BOM left by spreadsheet exports.
			if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == col {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			return fmt.Errorf("%w: %s: missing column %q", ErrReferenceData, path, col)
		}
	}

	row := make([]string, len(columns))
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrReferenceData, path, err)
		}
		for i, j := range idx {
			v := strings.TrimSpace(rec[j])
			if v == "" {
				return fmt.Errorf("%w: %s:%d: empty %q", ErrReferenceData, path, line, columns[i])
			}
			row[i] = v
		}
		fn(row)
	}
}

// loadReferenceHashes hashes every .jpg/.jpeg/.png file in dir, in name order.
func loadReferenceHashes(dir string) ([]*goimagehash.ImageHash, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReferenceData, err)
	}

	var hashes []*goimagehash.ImageHash
	for _, e := range entries {
		if e.IsDir() || !isReferenceImage(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReferenceData, err)
		}
		h, err := HashImageData(data, DefaultMaxImagePixels)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrReferenceData, path, err)
		}
		hashes = append(hashes, h)
	}
	return hashes, nil
}

func isReferenceImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

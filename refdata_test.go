package postlabel

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

// writeInputDir lays out a complete reference directory and returns its path.
// files overrides or adds CSV contents by file name; an empty value deletes it.
func writeInputDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	contents := map[string]string{
		NewsDomainsFile:    "Domain,Source\nwww.Reuters.com,Mainstream-News\ntheonion.com, satire\n",
		FlaggedDomainsFile: "Domain\nscamsite.biz\nhttps://www.phish.example/\n",
		FlaggedWordsFile:   "\ufeffWord\nads\nGuaranteed Returns\n",
	}
	for name, body := range files {
		contents[name] = body
	}
	for name, body := range contents {
		if body == "" {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	imgDir := filepath.Join(dir, ReferenceImagesDir)
	if err := os.Mkdir(imgDir, 0o700); err != nil {
		t.Fatal(err)
	}
	for name, data := range map[string][]byte{
		"rex.png":    encodePNG(t, makeBlockImage(100, 128)),
		"fido.PNG":   encodePNG(t, makeBlockImage(101, 128)),
		"README.txt": []byte("not an image"),
	} {
		if err := os.WriteFile(filepath.Join(imgDir, name), data, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadReferenceData(t *testing.T) {
	t.Parallel()

	rd, err := LoadReferenceData(writeInputDir(t, nil))
	if err != nil {
		t.Fatalf("LoadReferenceData: %v", err)
	}

	if c, ok := rd.SourceCategory("reuters.com"); !ok || c != "mainstream-news" {
		t.Errorf("SourceCategory(reuters.com) = %q, %v", c, ok)
	}
	if c, ok := rd.SourceCategory("theonion.com"); !ok || c != "satire" {
		t.Errorf("SourceCategory(theonion.com) = %q, %v", c, ok)
	}
	if _, ok := rd.SourceCategory("uk.reuters.com"); ok {
		t.Error("news lookup must be exact, not by subdomain")
	}

	if !rd.IsFlaggedDomain("phish.example") {
		t.Error("flagged URL entry was not canonicalized")
	}
	if !rd.IsFlaggedWord("guaranteed returns") || !rd.IsFlaggedWord("ads") {
		t.Errorf("flagged words = %q", rd.FlaggedTerms())
	}
	if got := rd.FlaggedTerms(); !slices.Equal(got, []string{"ads", "guaranteed returns"}) {
		t.Errorf("FlaggedTerms = %q, want load order", got)
	}
	if n := len(rd.ReferenceHashes()); n != 2 {
		t.Errorf("ReferenceHashes = %d, want 2", n)
	}
}

func TestLoadReferenceData_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files map[string]string
	}{
		{name: "missing news table", files: map[string]string{NewsDomainsFile: ""}},
		{name: "missing flagged domains", files: map[string]string{FlaggedDomainsFile: ""}},
		{name: "missing words", files: map[string]string{FlaggedWordsFile: ""}},
		{name: "missing column", files: map[string]string{NewsDomainsFile: "Domain,Category\nreuters.com,news\n"}},
		{name: "short row", files: map[string]string{NewsDomainsFile: "Domain,Source\nreuters.com\n"}},
		{name: "empty cell", files: map[string]string{FlaggedWordsFile: "Word\nads\n\"\"\n"}},
		{name: "empty file", files: map[string]string{FlaggedDomainsFile: "\n"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadReferenceData(writeInputDir(t, tc.files))
			if !errors.Is(err, ErrReferenceData) {
				t.Fatalf("error = %v, want ErrReferenceData", err)
			}
		})
	}
}

func TestLoadReferenceData_HeaderOnly(t *testing.T) {
	t.Parallel()

	rd, err := LoadReferenceData(writeInputDir(t, map[string]string{FlaggedDomainsFile: "Domain\n"}))
	if err != nil {
		t.Fatalf("LoadReferenceData: %v", err)
	}
	if rd.IsFlaggedDomain("scamsite.biz") {
		t.Error("header-only table should flag nothing")
	}
}

func TestLoadReferenceData_BadImage(t *testing.T) {
	t.Parallel()

	dir := writeInputDir(t, nil)
	if err := os.WriteFile(filepath.Join(dir, ReferenceImagesDir, "broken.jpg"), []byte("nope"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadReferenceData(dir); !errors.Is(err, ErrReferenceData) {
		t.Fatalf("error = %v, want ErrReferenceData", err)
	}
}

func TestLoadReferenceData_MissingImageDir(t *testing.T) {
	t.Parallel()

	dir := writeInputDir(t, nil)
	if err := os.RemoveAll(filepath.Join(dir, ReferenceImagesDir)); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadReferenceData(dir); !errors.Is(err, ErrReferenceData) {
		t.Fatalf("error = %v, want ErrReferenceData", err)
	}
}

func TestIsFlaggedDomain(t *testing.T) {
	t.Parallel()

	rd := NewReferenceData(nil, []string{"scamsite.biz", "bad.co.uk"}, nil, nil)

	tests := []struct {
		domain string
		want   bool
	}{
		{"scamsite.biz", true},
		{"a.scamsite.biz", true},
		{"a.b.scamsite.biz", true},
		{"notscamsite.biz", false},
		{"biz", false},
		{"bad.co.uk", true},
		{"co.uk", false},
		{"x.bad.co.uk", true},
		{"", false},
	}
	for _, tc := range tests {
		if got := rd.IsFlaggedDomain(tc.domain); got != tc.want {
			t.Errorf("IsFlaggedDomain(%q) = %v, want %v", tc.domain, got, tc.want)
		}
		// Must agree with the pairwise rule.
		if got := DomainMatches(tc.domain, "scamsite.biz") || DomainMatches(tc.domain, "bad.co.uk"); got != tc.want {
			t.Errorf("DomainMatches disagrees for %q", tc.domain)
		}
	}
}

func TestNewReferenceData_DropsBlanks(t *testing.T) {
	t.Parallel()

	rd := NewReferenceData(
		map[string]string{"": "news", "example.com": "  ", "ok.com": "Wire"},
		[]string{"", "  "},
		[]string{"", "  ", "ADS", "ads"},
		nil,
	)
	if _, ok := rd.SourceCategory("example.com"); ok {
		t.Error("blank category should be dropped")
	}
	if c, _ := rd.SourceCategory("ok.com"); c != "wire" {
		t.Errorf("category = %q, want lowercased", c)
	}
	if got := rd.FlaggedTerms(); !slices.Equal(got, []string{"ads"}) {
		t.Errorf("FlaggedTerms = %q, want [ads]", got)
	}
	if rd.IsFlaggedDomain("") {
		t.Error("empty domain flagged")
	}
}

func TestReferenceData_LookupsCanonicalize(t *testing.T) {
	t.Parallel()

	rd := testReferenceData()

	for _, in := range []string{"www.reuters.com", "REUTERS.COM", "https://www.Reuters.com/world"} {
		if c, ok := rd.SourceCategory(in); !ok || c != "mainstream-news" {
			t.Errorf("SourceCategory(%q) = %q, %v", in, c, ok)
		}
	}
	for _, in := range []string{"Scamsite.BIZ", "www.scamsite.biz", "https://Login.ScamSite.biz/x"} {
		if !rd.IsFlaggedDomain(in) {
			t.Errorf("IsFlaggedDomain(%q) = false, want true", in)
		}
	}
	if rd.IsFlaggedDomain("https://notscamsite.biz/") {
		t.Error("IsFlaggedDomain(notscamsite.biz) = true")
	}
}

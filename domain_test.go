package postlabel

import "testing"

func TestCanonicalDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://www.Reuters.com/world", "reuters.com"},
		{"www.reuters.com/", "reuters.com"},
		{"reuters.com", "reuters.com"},
		{"  REUTERS.COM  ", "reuters.com"},
		{"HTTP://NEWS.BBC.CO.UK:80/x", "news.bbc.co.uk"},
		{"https://user:pw@example.com:8443/p?q=1#frag", "example.com"},
		{"https://www.www.example.com", "example.com"},
		{"https://sub.www.example.com", "sub.www.example.com"},
		{"example.com.", "example.com"},
		{"ftp://files.example.org/x", "files.example.org"},
		{"", ""},
		{"   ", ""},
		{"http://", ""},
		{"http://[::1", ""},
		{"http://[::1]:80/x", "::1"},
		{"https://[2001:DB8:0::1]/", "2001:db8::1"},
		{"::1", "::1"},
		{"[2001:db8::1]", "2001:db8::1"},
		{"http://192.0.2.10:8080/a", "192.0.2.10"},
	}

	for _, tc := range tests {
		if got := CanonicalDomain(tc.in); got != tc.want {
			t.Errorf("CanonicalDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalDomain_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"https://www.Reuters.com/world",
		"WWW.Example.ORG.",
		"http://a.b.c.example.net:8080/path",
		"scamsite.biz",
		"http://[::1]:80/x",
		"https://[2001:db8::1]/",
		"https://[2001:DB8:0:0::1]:8443/p",
		"http://[::ffff:192.0.2.1]/",
		"http://192.0.2.10:8080/a",
		"",
	}
	for _, in := range inputs {
		once := CanonicalDomain(in)
		if twice := CanonicalDomain(once); twice != once {
			t.Errorf("CanonicalDomain(CanonicalDomain(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestDomainMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		domain, flagged string
		want            bool
	}{
		{"scamsite.biz", "scamsite.biz", true},
		{"evil.scamsite.biz", "scamsite.biz", true},
		{"a.b.scamsite.biz", "scamsite.biz", true},
		{"notscamsite.biz", "scamsite.biz", false},
		{"scamsite.biz.example.com", "scamsite.biz", false},
		{"scamsite.biz", "evil.scamsite.biz", false},
		{"", "scamsite.biz", false},
		{"scamsite.biz", "", false},
	}

	for _, tc := range tests {
		if got := DomainMatches(tc.domain, tc.flagged); got != tc.want {
			t.Errorf("DomainMatches(%q, %q) = %v, want %v", tc.domain, tc.flagged, got, tc.want)
		}
	}
}

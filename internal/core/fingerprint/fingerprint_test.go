package fingerprint

import (
	"testing"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/ogc"
)

func TestOf_StableAndWhitespaceInsensitive(t *testing.T) {
	a := &ogc.Request{Method: "POST", URL: "http://x/csw", Body: []byte("<a>\n  <b/>\n</a>")}
	b := &ogc.Request{Method: "POST", URL: "http://x/csw", Body: []byte("<a> <b/> </a>")}

	fa, fb := Of(a), Of(b)
	if fa != fb {
		t.Fatalf("fingerprints differ for whitespace-only change: %s vs %s", fa, fb)
	}
	if len(fa) != 16 {
		t.Fatalf("fingerprint length=%d want 16", len(fa))
	}
	if Of(a) != fa {
		t.Fatalf("fingerprint not stable")
	}
}

func TestOf_DistinguishesRequests(t *testing.T) {
	base := &ogc.Request{Method: "GET", URL: "http://x/csw?a=1"}
	cases := []*ogc.Request{
		{Method: "POST", URL: "http://x/csw?a=1"},
		{Method: "GET", URL: "http://x/csw?a=2"},
		{Method: "GET", URL: "http://x/csw?a=1", Body: []byte("x")},
	}
	for _, c := range cases {
		if Of(c) == Of(base) {
			t.Fatalf("fingerprint collision between %v and %v", c, base)
		}
	}
	if Of(nil) != "" {
		t.Fatalf("nil request should have empty fingerprint")
	}
}

func TestCollapseASCIIWhitespace(t *testing.T) {
	if got := collapseASCIIWhitespace("  a \t\n b  "); got != "a b" {
		t.Fatalf("got %q want %q", got, "a b")
	}
}

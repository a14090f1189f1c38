// Package fingerprint derives stable identifiers for built OGC requests.
package fingerprint

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/ogc"
)

// Of hashes method, URL and body. Runs of whitespace in the body are
// collapsed so reformatted XML maps to the same fingerprint.
func Of(r *ogc.Request) string {
	if r == nil {
		return ""
	}
	d := xxhash.New()
	_, _ = d.WriteString(r.Method)
	_, _ = d.WriteString("\n")
	_, _ = d.WriteString(r.URL)
	_, _ = d.WriteString("\n")
	_, _ = d.WriteString(collapseASCIIWhitespace(string(r.Body)))
	return fmt.Sprintf("%016x", d.Sum64())
}

// converts any run of ASCII whitespace to a single space.
func collapseASCIIWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wasWS := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' {
			if !wasWS {
				b.WriteByte(' ')
				wasWS = true
			}
			continue
		}
		b.WriteRune(r)
		wasWS = false
	}
	return strings.TrimSpace(b.String())
}

package ogc

import (
	"regexp"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
)

const (
	TypeNameISO    = "gmd:MD_Metadata"
	TypeNameRecord = "csw:Record"

	// PyCSWEnvelopeSRS is the only envelope CRS pycsw accepts.
	PyCSWEnvelopeSRS = "urn:ogc:def:crs:OGC:1.3:CRS84"
)

type dialect struct {
	typeNames string
	// sendConstraintVersion controls constraint_language_version on GET
	sendConstraintVersion bool
	decorate              func(string) string
}

var dialects = map[model.Provider]dialect{
	model.ProviderDefault: {
		typeNames:             TypeNameISO,
		sendConstraintVersion: true,
		decorate:              func(s string) string { return s },
	},
	model.ProviderPyCSW: {
		typeNames:             TypeNameRecord,
		sendConstraintVersion: false,
		decorate:              rewriteEnvelopeSRS,
	},
	model.ProviderGeoServer: {
		typeNames:             TypeNameISO,
		sendConstraintVersion: true,
		decorate:              rewriteBoundingBoxProperty,
	},
}

func dialectFor(p model.Provider) dialect {
	if d, ok := dialects[p]; ok {
		return d
	}
	return dialects[model.ProviderDefault]
}

// Decorate rewrites a filter fragment into the provider's accepted form.
// Unknown providers are treated as Default.
func Decorate(fragment string, p model.Provider) string {
	return dialectFor(p).decorate(fragment)
}

// TypeNames returns the record type requested from a provider.
func TypeNames(p model.Provider) string {
	return dialectFor(p).typeNames
}

// SendsConstraintVersion reports whether GET requests carry
// constraint_language_version for the provider.
func SendsConstraintVersion(p model.Provider) bool {
	return dialectFor(p).sendConstraintVersion
}

const (
	// xmlAttr matches one attribute; quoted values may contain '>'.
	xmlAttr    = `\s+[\w:.-]+\s*=\s*(?:"[^"]*"|'[^']*')`
	xmlName    = `(?:[\w.-]+:)?`
	spatialOps = `(?:BBOX|Intersects|Within|Contains|Overlaps|Disjoint|Touches|Crosses|Equals|DWithin|Beyond)`
)

var boundingBoxPropertyRe = regexp.MustCompile(
	`(<` + xmlName + spatialOps + `(?:` + xmlAttr + `)*\s*>\s*` +
		`<` + xmlName + `PropertyName(?:` + xmlAttr + `)*\s*>)` +
		`(\s*)ows:BoundingBox(\s*)` +
		`(</` + xmlName + `PropertyName\s*>)`)

var envelopeSRSRe = regexp.MustCompile(
	`(<` + xmlName + `Envelope(?:` + xmlAttr + `)*?\s+srsName\s*=\s*)(?:"[^"]*"|'[^']*')`)

// GeoServer indexes the catalogue bounding box without the ows prefix. Only
// the property operand of a spatial operator is rewritten.
func rewriteBoundingBoxProperty(s string) string {
	return boundingBoxPropertyRe.ReplaceAllString(s, "${1}${2}BoundingBox${3}${4}")
}

func rewriteEnvelopeSRS(s string) string {
	return envelopeSRSRe.ReplaceAllString(s, `${1}"`+PyCSWEnvelopeSRS+`"`)
}

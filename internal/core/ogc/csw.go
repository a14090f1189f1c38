package ogc

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/ogc-gateway/internal/core/model"
)

const (
	CSWVersion                = "2.0.2"
	ConstraintLanguageVersion = "1.1.0"
	OutputSchemaISO           = NSGMD
	elementSetFull            = "full"
	sortPropertyPublication   = "apiso:PublicationDate"
	opGetRecords              = "GetRecords"
)

// MakeGetRecordsPost builds a CSW GetRecords POST. The filter is decorated
// for the provider and the Constraint element is left out entirely when
// the query carries no filter.
func MakeGetRecordsPost(q model.RecordsQuery) (*Request, error) {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<csw:GetRecords`)
	attr(&b, "xmlns:csw", NSCSW)
	attr(&b, "xmlns:ogc", NSOGC)
	attr(&b, "xmlns:gml", NSGML)
	attr(&b, "xmlns:gmd", NSGMD)
	attr(&b, "xmlns:ows", NSOWS)
	attr(&b, "service", "CSW")
	attr(&b, "version", CSWVersion)
	attr(&b, "resultType", q.ResultType.String())
	attr(&b, "outputFormat", "application/xml")
	attr(&b, "outputSchema", OutputSchemaISO)
	if q.StartPosition > 0 {
		attr(&b, "startPosition", strconv.Itoa(q.StartPosition))
	}
	attr(&b, "maxRecords", strconv.Itoa(q.MaxRecords))
	b.WriteString(`>`)

	b.WriteString(`<csw:Query`)
	attr(&b, "typeNames", TypeNames(q.Provider))
	b.WriteString(`>`)
	b.WriteString(`<csw:ElementSetName>` + elementSetFull + `</csw:ElementSetName>`)
	if strings.TrimSpace(q.Filter) != "" {
		b.WriteString(`<csw:Constraint`)
		attr(&b, "version", ConstraintLanguageVersion)
		b.WriteString(`>`)
		b.WriteString(Decorate(q.Filter, q.Provider))
		b.WriteString(`</csw:Constraint>`)
	}
	writeSortBy(&b, q.Sort)
	b.WriteString(`</csw:Query></csw:GetRecords>`)

	req, err := newPost(q.Endpoint, ContentTypeXML, []byte(b.String()))
	if err != nil {
		return nil, err
	}
	req.Operation, req.Provider = opGetRecords, q.Provider
	return req, nil
}

// MakeGetRecordsGet builds the KVP form of GetRecords. Filters are not
// carried on GET; use the POST form for constrained queries.
func MakeGetRecordsGet(q model.RecordsQuery) (*Request, error) {
	params := url.Values{}
	params.Set("service", "CSW")
	params.Set("request", opGetRecords)
	params.Set("version", CSWVersion)
	params.Set("resultType", q.ResultType.String())
	params.Set("maxRecords", strconv.Itoa(q.MaxRecords))
	params.Set("startPosition", strconv.Itoa(q.StartPosition))
	params.Set("outputSchema", OutputSchemaISO)
	params.Set("typeNames", TypeNames(q.Provider))
	params.Set("elementSetName", elementSetFull)
	params.Set("constraintLanguage", "FILTER")
	if SendsConstraintVersion(q.Provider) {
		params.Set("constraint_language_version", ConstraintLanguageVersion)
	}
	req, err := newGet(q.Endpoint, params)
	if err != nil {
		return nil, err
	}
	req.Operation, req.Provider = opGetRecords, q.Provider
	return req, nil
}

func writeSortBy(b *strings.Builder, s model.SortType) {
	var order string
	switch s {
	case model.SortPublicationDateAsc:
		order = "ASC"
	case model.SortPublicationDateDesc:
		order = "DESC"
	default:
		return
	}
	b.WriteString(`<ogc:SortBy><ogc:SortProperty>`)
	b.WriteString(`<ogc:PropertyName>` + sortPropertyPublication + `</ogc:PropertyName>`)
	b.WriteString(`<ogc:SortOrder>` + order + `</ogc:SortOrder>`)
	b.WriteString(`</ogc:SortProperty></ogc:SortBy>`)
}

func attr(b *strings.Builder, name, value string) {
	b.WriteString(` ` + name + `="` + escape(value) + `"`)
}

package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := newApp(&out, io.Discard).Run(context.Background(), append([]string{"ogcctl"}, args...))
	return out.String(), err
}

func TestRecords_DryRunPyCSW(t *testing.T) {
	out, err := runApp(t, "--url", "http://pycsw.test/csw", "--provider", "pycsw", "--dry-run",
		"records", "--result-type", "hits", "--bbox", "-39,143,-44,148", "--max-records", "5")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "POST http://pycsw.test/csw\n"), out)
	assert.Contains(t, out, "Content-Type: application/xml")
	assert.Contains(t, out, `resultType="hits"`)
	assert.Contains(t, out, `maxRecords="5"`)
	assert.Contains(t, out, `typeNames="csw:Record"`)
	assert.Contains(t, out, `srsName="urn:ogc:def:crs:OGC:1.3:CRS84"`)
}

func TestRecords_GetRejectsFilter(t *testing.T) {
	_, err := runApp(t, "--url", "http://x.test/csw", "--dry-run", "records", "--get", "--anytext", "soil")
	require.Error(t, err)
}

func TestRecords_GetDryRun(t *testing.T) {
	out, err := runApp(t, "--url", "http://x.test/csw", "--provider", "geoserver", "--dry-run", "records", "--get")
	require.NoError(t, err)

	line := strings.SplitN(out, "\n", 2)[0]
	require.True(t, strings.HasPrefix(line, "GET "), line)
	u, err := url.Parse(strings.TrimPrefix(line, "GET "))
	require.NoError(t, err)
	assert.Equal(t, "GetRecords", u.Query().Get("request"))
	assert.Equal(t, "1.1.0", u.Query().Get("constraint_language_version"))
}

func TestObservations_DryRunForm(t *testing.T) {
	out, err := runApp(t, "--url", "http://sos.test/sos", "--dry-run", "observations",
		"--feature", "station-7",
		"--begin", "2020-01-01T00:00:00Z", "--end", "2020-01-31T00:00:00Z",
		"--bbox", "-39,143,-44,148")
	require.NoError(t, err)

	parts := strings.SplitN(out, "\n\n", 2)
	require.Len(t, parts, 2)
	form, err := url.ParseQuery(strings.TrimSpace(parts[1]))
	require.NoError(t, err)
	assert.Equal(t, "GetObservation", form.Get("request"))
	assert.Equal(t, "station-7", form.Get("featureOfInterest"))
	assert.Equal(t, "om:phenomenonTime,2020-01-01T00:00:00Z/2020-01-31T00:00:00Z", form.Get("temporalFilter"))
	assert.Equal(t, "om:featureOfInterest/*/sams:shape,-39,143,-44,148", form.Get("spatialFilter"))
}

func TestObservations_OneSidedRange(t *testing.T) {
	_, err := runApp(t, "--url", "http://sos.test/sos", "--dry-run", "observations", "--begin", "2020-01-01T00:00:00Z")
	require.Error(t, err)
}

func TestCapabilities_SendsAndPrints(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`<sos:Capabilities xmlns:sos="http://www.opengis.net/sos/2.0"/>`))
	}))
	defer srv.Close()

	out, err := runApp(t, "--url", srv.URL, "capabilities", "--service", "sos")
	require.NoError(t, err)
	assert.Contains(t, out, "sos:Capabilities")
	assert.Equal(t, "SOS", gotQuery.Get("service"))
	assert.Equal(t, "GetCapabilities", gotQuery.Get("request"))
}

func TestCapabilities_ServiceExceptionIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<ows:ExceptionReport xmlns:ows="http://www.opengis.net/ows/1.1"><ows:Exception exceptionCode="VersionNegotiationFailed"><ows:ExceptionText>no 3.0</ows:ExceptionText></ows:Exception></ows:ExceptionReport>`))
	}))
	defer srv.Close()

	_, err := runApp(t, "--url", srv.URL, "capabilities")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VersionNegotiationFailed")
	assert.Contains(t, err.Error(), "no 3.0")
}

func TestUnknownProvider(t *testing.T) {
	_, err := runApp(t, "--url", "http://x.test/csw", "--provider", "esri", "--dry-run", "records")
	require.Error(t, err)
}

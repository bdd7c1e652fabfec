package lookup_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achildrenmile/oeradio-mcp/internal/lookup"
)

const hamqthTestURL = "http://hamqth.test/dxcc.php"

const hamqthHitXML = `<?xml version="1.0"?>
<HamQTH><dxcc><callsign>oe1abc</callsign><name>Austria</name></dxcc></HamQTH>`

const hamqthEmptyXML = `<?xml version="1.0"?>
<HamQTH><dxcc></dxcc></HamQTH>`

func newHamQTHTestSource() (*lookup.HamQTHSource, *httpmock.MockTransport) {
	transport := httpmock.NewMockTransport()
	src := lookup.NewHamQTHSource(5*time.Second, time.Millisecond)
	src.SetAPIURL(hamqthTestURL)
	src.HTTPClient = &http.Client{Transport: transport}
	return src, transport
}

func TestHamQTHAlwaysAvailable(t *testing.T) {
	src, _ := newHamQTHTestSource()
	assert.True(t, src.Available())
}

func TestHamQTHAttemptHit(t *testing.T) {
	src, transport := newHamQTHTestSource()
	transport.RegisterResponder("GET", hamqthTestURL,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "OE1ABC", req.URL.Query().Get("callsign"))
			return httpmock.NewStringResponse(http.StatusOK, hamqthHitXML), nil
		})

	outcome, err := src.Attempt(context.Background(), "OE1ABC")
	require.NoError(t, err)
	require.True(t, outcome.Exists)
	assert.Equal(t, "OE1ABC", outcome.Entry.Callsign)
	assert.Equal(t, "Austria", outcome.Entry.Country)
	// Anonymous endpoint carries no owner data.
	assert.Empty(t, outcome.Entry.Name)
}

func TestHamQTHAttemptEmptyBodyIsMiss(t *testing.T) {
	src, transport := newHamQTHTestSource()
	transport.RegisterResponder("GET", hamqthTestURL,
		httpmock.NewStringResponder(http.StatusOK, hamqthEmptyXML))

	outcome, err := src.Attempt(context.Background(), "OE9ZZZ")
	require.NoError(t, err)
	assert.False(t, outcome.Exists)
}

func TestHamQTHAttemptNotFoundStatus(t *testing.T) {
	src, transport := newHamQTHTestSource()
	transport.RegisterResponder("GET", hamqthTestURL,
		httpmock.NewStringResponder(http.StatusNotFound, ""))

	outcome, err := src.Attempt(context.Background(), "OE9ZZZ")
	require.NoError(t, err)
	assert.False(t, outcome.Exists)
}

func TestHamQTHAttemptServerError(t *testing.T) {
	src, transport := newHamQTHTestSource()
	transport.RegisterResponder("GET", hamqthTestURL,
		httpmock.NewStringResponder(http.StatusInternalServerError, "oops"))

	_, err := src.Attempt(context.Background(), "OE1ABC")
	assert.Error(t, err)
}

package lookup_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achildrenmile/oeradio-mcp/internal/config"
	"github.com/achildrenmile/oeradio-mcp/internal/lookup"
)

const qrzTestURL = "http://qrz.test/xml"

const qrzSessionXML = `<?xml version="1.0"?>
<QRZDatabase><Session><Key>testkey123</Key></Session></QRZDatabase>`

const qrzHitXML = `<?xml version="1.0"?>
<QRZDatabase>
  <Session><Key>testkey123</Key></Session>
  <Callsign>
    <call>OE1ABC</call>
    <fname>Hans</fname>
    <name>Muster</name>
    <addr1>Teststrasse 5</addr1>
    <addr2>Wien</addr2>
    <zip>1010</zip>
    <country>Austria</country>
  </Callsign>
</QRZDatabase>`

const qrzNotFoundXML = `<?xml version="1.0"?>
<QRZDatabase><Session><Key>testkey123</Key><Error>Not found: OE9ZZZ</Error></Session></QRZDatabase>`

const qrzSessionTimeoutXML = `<?xml version="1.0"?>
<QRZDatabase><Session><Error>Session Timeout</Error></Session></QRZDatabase>`

const qrzBadCredsXML = `<?xml version="1.0"?>
<QRZDatabase><Session><Error>Username/password incorrect</Error></Session></QRZDatabase>`

func newQRZTestSource(t *testing.T) (*lookup.QRZSource, *httpmock.MockTransport) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	src := lookup.NewQRZSource(config.QRZConfig{Username: "tester", Password: "secret"},
		5*time.Second, time.Millisecond)
	src.SetAPIURL(qrzTestURL)
	src.HTTPClient = &http.Client{Transport: transport}
	return src, transport
}

// qrzResponder dispatches on the query: a username parameter is a login,
// anything else is a callsign query carrying the session key.
func qrzResponder(onLogin, onQuery func(req *http.Request) string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		q := req.URL.Query()
		if q.Get("username") != "" {
			return httpmock.NewStringResponse(http.StatusOK, onLogin(req)), nil
		}
		return httpmock.NewStringResponse(http.StatusOK, onQuery(req)), nil
	}
}

func TestQRZUnavailableWithoutCredentials(t *testing.T) {
	src := lookup.NewQRZSource(config.QRZConfig{}, time.Second, time.Millisecond)
	assert.False(t, src.Available())

	src = lookup.NewQRZSource(config.QRZConfig{Username: "tester", Password: "secret"}, time.Second, time.Millisecond)
	assert.True(t, src.Available())
}

func TestQRZAttemptHit(t *testing.T) {
	src, transport := newQRZTestSource(t)
	logins := 0
	transport.RegisterResponder("GET", qrzTestURL, qrzResponder(
		func(*http.Request) string { logins++; return qrzSessionXML },
		func(req *http.Request) string {
			assert.Equal(t, "testkey123", req.URL.Query().Get("s"))
			assert.Equal(t, "OE1ABC", req.URL.Query().Get("callsign"))
			return qrzHitXML
		},
	))

	outcome, err := src.Attempt(context.Background(), "OE1ABC")
	require.NoError(t, err)
	require.True(t, outcome.Exists)
	assert.Equal(t, "OE1ABC", outcome.Entry.Callsign)
	assert.Equal(t, "Hans Muster", outcome.Entry.Name)
	assert.Equal(t, "Wien", outcome.Entry.QTH)
	assert.Equal(t, "1010", outcome.Entry.PLZ)
	assert.Equal(t, "Austria", outcome.Entry.Country)
	assert.Equal(t, 1, logins)
}

func TestQRZSessionReusedAcrossAttempts(t *testing.T) {
	src, transport := newQRZTestSource(t)
	logins := 0
	transport.RegisterResponder("GET", qrzTestURL, qrzResponder(
		func(*http.Request) string { logins++; return qrzSessionXML },
		func(*http.Request) string { return qrzHitXML },
	))

	_, err := src.Attempt(context.Background(), "OE1ABC")
	require.NoError(t, err)
	_, err = src.Attempt(context.Background(), "OE1ABC")
	require.NoError(t, err)
	assert.Equal(t, 1, logins, "session key should be reused")
}

func TestQRZReauthenticatesOnSessionTimeout(t *testing.T) {
	src, transport := newQRZTestSource(t)
	logins, queries := 0, 0
	transport.RegisterResponder("GET", qrzTestURL, qrzResponder(
		func(*http.Request) string { logins++; return qrzSessionXML },
		func(*http.Request) string {
			queries++
			if queries == 1 {
				return qrzSessionTimeoutXML
			}
			return qrzHitXML
		},
	))

	outcome, err := src.Attempt(context.Background(), "OE1ABC")
	require.NoError(t, err)
	assert.True(t, outcome.Exists)
	assert.Equal(t, 2, logins, "expected one re-authentication")
	assert.Equal(t, 2, queries, "expected the query to be retried once")
}

func TestQRZNotFound(t *testing.T) {
	src, transport := newQRZTestSource(t)
	transport.RegisterResponder("GET", qrzTestURL, qrzResponder(
		func(*http.Request) string { return qrzSessionXML },
		func(*http.Request) string { return qrzNotFoundXML },
	))

	outcome, err := src.Attempt(context.Background(), "OE9ZZZ")
	require.NoError(t, err)
	assert.False(t, outcome.Exists)
	assert.Nil(t, outcome.Entry)
}

func TestQRZBadCredentialsNotRetried(t *testing.T) {
	src, transport := newQRZTestSource(t)
	logins := 0
	transport.RegisterResponder("GET", qrzTestURL, qrzResponder(
		func(*http.Request) string { logins++; return qrzBadCredsXML },
		func(*http.Request) string { t.Error("query must not run without a session"); return "" },
	))

	_, err := src.Attempt(context.Background(), "OE1ABC")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication failed")
	assert.Equal(t, 1, logins, "permanent auth failure must not be retried")
}

package lookup

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/achildrenmile/oeradio-mcp/internal/config"
	"github.com/achildrenmile/oeradio-mcp/internal/version"
)

// hamqthResponse is the envelope of HamQTH's anonymous DXCC endpoint. It
// confirms a callsign and its entity, nothing more; no account is needed.
type hamqthResponse struct {
	XMLName xml.Name   `xml:"HamQTH"`
	DXCC    hamqthDXCC `xml:"dxcc"`
}

type hamqthDXCC struct {
	Callsign string `xml:"callsign"`
	Name     string `xml:"name"` // entity (country) name
}

// HamQTHSource queries HamQTH anonymously. Lower trust and reduced data
// compared to QRZ, so it sits last in the chain.
type HamQTHSource struct {
	apiURL string

	httpClient *http.Client
	// HTTPClient is an exported testing hook.
	HTTPClient HTTPDoer

	limiter *rate.Limiter
}

// NewHamQTHSource creates the anonymous HamQTH source.
func NewHamQTHSource(timeout, minInterval time.Duration) *HamQTHSource {
	s := &HamQTHSource{
		apiURL:     config.HamQTHDXCCURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(minInterval), 1),
	}
	s.HTTPClient = s.httpClient
	return s
}

// SetAPIURL overrides the endpoint; used by tests.
func (s *HamQTHSource) SetAPIURL(u string) { s.apiURL = u }

// Name implements Source.
func (s *HamQTHSource) Name() string { return SourceHamQTH }

// Available implements Source. Anonymous queries need no credentials.
func (s *HamQTHSource) Available() bool { return true }

// Attempt implements Source.
func (s *HamQTHSource) Attempt(ctx context.Context, cs string) (Outcome, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return Outcome{}, fmt.Errorf("hamqth rate gate: %w", err)
	}

	params := url.Values{}
	params.Set("callsign", cs)

	req, err := http.NewRequestWithContext(ctx, "GET", s.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to create HamQTH request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("hamqth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Outcome{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Outcome{}, fmt.Errorf("hamqth returned non-OK status: %s", resp.Status)
	}

	var parsed hamqthResponse
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Outcome{}, fmt.Errorf("failed to decode HamQTH response: %w", err)
	}

	if parsed.DXCC.Callsign == "" {
		return Outcome{}, nil
	}
	return Outcome{
		Exists: true,
		Entry: &Entry{
			Callsign: strings.ToUpper(parsed.DXCC.Callsign),
			Country:  parsed.DXCC.Name,
		},
	}, nil
}

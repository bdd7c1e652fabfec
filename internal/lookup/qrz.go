package lookup

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/achildrenmile/oeradio-mcp/internal/config"
	"github.com/achildrenmile/oeradio-mcp/internal/logging"
	"github.com/achildrenmile/oeradio-mcp/internal/version"
)

// HTTPDoer is a minimal interface for http clients used in tests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// qrzResponse is the XML envelope of the QRZ.com XML API. Both session
// establishment and callsign queries come back in this shape.
type qrzResponse struct {
	XMLName  xml.Name    `xml:"QRZDatabase"`
	Session  qrzSession  `xml:"Session"`
	Callsign qrzCallsign `xml:"Callsign"`
}

type qrzSession struct {
	Key   string `xml:"Key"`
	Error string `xml:"Error"`
}

type qrzCallsign struct {
	Call    string `xml:"call"`
	Fname   string `xml:"fname"`
	Name    string `xml:"name"`
	Addr1   string `xml:"addr1"`
	Addr2   string `xml:"addr2"`
	Zip     string `xml:"zip"`
	Country string `xml:"country"`
}

// QRZSource queries the QRZ.com XML API. The API hands out a session key
// valid for a multi-hour window; on a session-invalid response the source
// re-authenticates once and retries the query.
type QRZSource struct {
	cfg    config.QRZConfig
	apiURL string

	httpClient *http.Client
	// HTTPClient is an exported testing hook.
	HTTPClient HTTPDoer

	limiter *rate.Limiter

	mu         sync.Mutex
	sessionKey string
}

// NewQRZSource creates the QRZ source. The source reports unavailable until
// credentials are configured.
func NewQRZSource(cfg config.QRZConfig, timeout, minInterval time.Duration) *QRZSource {
	s := &QRZSource{
		cfg:        cfg,
		apiURL:     config.QRZAPIURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(minInterval), 1),
	}
	s.HTTPClient = s.httpClient
	return s
}

// SetAPIURL overrides the endpoint; used by tests.
func (s *QRZSource) SetAPIURL(u string) { s.apiURL = u }

// Name implements Source.
func (s *QRZSource) Name() string { return SourceQRZ }

// Available implements Source.
func (s *QRZSource) Available() bool {
	return s.cfg.Username != "" && s.cfg.Password != ""
}

// Attempt implements Source.
func (s *QRZSource) Attempt(ctx context.Context, cs string) (Outcome, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return Outcome{}, fmt.Errorf("qrz rate gate: %w", err)
	}

	key, err := s.session(ctx)
	if err != nil {
		return Outcome{}, err
	}

	resp, err := s.query(ctx, key, cs)
	if err != nil {
		return Outcome{}, err
	}

	if sessionInvalid(resp.Session.Error) {
		logging.Info("qrz: session expired, re-authenticating")
		s.mu.Lock()
		s.sessionKey = ""
		s.mu.Unlock()
		key, err = s.session(ctx)
		if err != nil {
			return Outcome{}, err
		}
		resp, err = s.query(ctx, key, cs)
		if err != nil {
			return Outcome{}, err
		}
	}

	if resp.Callsign.Call == "" {
		if e := resp.Session.Error; e != "" && !strings.HasPrefix(e, "Not found") {
			return Outcome{}, fmt.Errorf("qrz query failed: %s", e)
		}
		return Outcome{}, nil
	}

	name := strings.TrimSpace(resp.Callsign.Fname + " " + resp.Callsign.Name)
	return Outcome{
		Exists: true,
		Entry: &Entry{
			Callsign: strings.ToUpper(resp.Callsign.Call),
			Name:     name,
			QTH:      resp.Callsign.Addr2,
			PLZ:      resp.Callsign.Zip,
			Address:  resp.Callsign.Addr1,
			Country:  resp.Callsign.Country,
		},
	}, nil
}

// session returns a valid session key, authenticating if necessary.
// Authentication is retried with exponential backoff; QRZ occasionally
// answers the login with a transient error.
func (s *QRZSource) session(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionKey != "" {
		return s.sessionKey, nil
	}

	op := func() error {
		params := url.Values{}
		params.Set("username", s.cfg.Username)
		params.Set("password", s.cfg.Password)
		params.Set("agent", version.UserAgent)

		resp, err := s.get(ctx, params)
		if err != nil {
			return err
		}
		if resp.Session.Key == "" {
			// Bad credentials never get better; stop retrying.
			return backoff.Permanent(fmt.Errorf("qrz authentication failed: %s", resp.Session.Error))
		}
		s.sessionKey = resp.Session.Key
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", err
	}
	logging.Debug("qrz: session established")
	return s.sessionKey, nil
}

func (s *QRZSource) query(ctx context.Context, key, cs string) (*qrzResponse, error) {
	params := url.Values{}
	params.Set("s", key)
	params.Set("callsign", cs)
	return s.get(ctx, params)
}

func (s *QRZSource) get(ctx context.Context, params url.Values) (*qrzResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create QRZ request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qrz request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("qrz returned non-OK status: %s", resp.Status)
	}

	var parsed qrzResponse
	if err := xml.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode QRZ response: %w", err)
	}
	return &parsed, nil
}

func sessionInvalid(errText string) bool {
	return strings.Contains(errText, "Session Timeout") ||
		strings.Contains(errText, "Invalid session key")
}

// Package epias fetches day-ahead market clearing prices (PTF) from the EPİAŞ transparency
// platform. Requests carry a ticket granting ticket (TGT) obtained from the CAS endpoint; the
// ticket is cached until it expires.
package epias

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"golang.org/x/oauth2"
)

const (
	DefaultAuthURL    = "https://giris.epias.com.tr/cas/v1/tickets"
	DefaultServiceURL = "https://seffaflik.epias.com.tr/electricity-service/v1/markets/dam/data/mcp"
	// ticketLifetime is how long a TGT is reused before a new one is requested.
	ticketLifetime = 2 * time.Hour
	tgtHeader      = "TGT"
	hoursPerDay    = 24
	dateLayout     = "2006-01-02T15:04:05-07:00"
)

var (
	ErrCredentials = errors.New("Username and Password required for EPİAŞ API.")
	ErrAPI         = errors.New("API Error")
	ErrNoPrices    = errors.New("No valid price data found.")
	ErrHourCount   = errors.New("unexpected hour count")
)

// Options configure New. Zero values use the public endpoints and Europe/Istanbul.
type Options struct {
	AuthURL    string
	ServiceURL string
	Location   *time.Location
	HTTPClient *http.Client
}

// Client is a thin wrapper over http.Client with TGT auth.
// Use New to construct it.
type Client struct {
	c          *http.Client
	serviceURL string
	loc        *time.Location
}

func New(username, password string, o Options) (*Client, error) {
	if username == "" || password == "" {
		return nil, ErrCredentials
	}
	base := o.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}
	if o.AuthURL == "" {
		o.AuthURL = DefaultAuthURL
	}
	if o.ServiceURL == "" {
		o.ServiceURL = DefaultServiceURL
	}
	loc := o.Location
	if loc == nil {
		var err error
		if loc, err = time.LoadLocation("Europe/Istanbul"); err != nil {
			loc = time.FixedZone("TRT", 3*60*60)
		}
	}

	src := oauth2.ReuseTokenSource(nil, &ticketSource{c: base, authURL: o.AuthURL, username: username, password: password})
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	c := &http.Client{
		Transport: &ticketTransport{src: src, base: transport},
		Timeout:   base.Timeout,
	}
	return &Client{c: c, serviceURL: o.ServiceURL, loc: loc}, nil
}

// ticketSource exchanges the credentials for a TGT.
type ticketSource struct {
	c                  *http.Client
	authURL            string
	username, password string
}

func (s *ticketSource) Token() (*oauth2.Token, error) {
	form := url.Values{"username": {s.username}, "password": {s.password}}
	req, err := http.NewRequest(http.MethodPost, s.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/plain")
	resp, err := s.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ticket request: %s: %s", ErrAPI, resp.Status, snippet(b))
	}
	tgt := strings.TrimSpace(string(b))
	if tgt == "" {
		return nil, fmt.Errorf("%w: empty ticket", ErrAPI)
	}
	slog.Info("epias.ticket.issued")
	return &oauth2.Token{AccessToken: tgt, TokenType: tgtHeader, Expiry: time.Now().Add(ticketLifetime)}, nil
}

// ticketTransport sets the TGT header on every request, the way oauth2.Transport sets a bearer.
type ticketTransport struct {
	src  oauth2.TokenSource
	base http.RoundTripper
}

func (t *ticketTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := t.src.Token()
	if err != nil {
		if req.Body != nil {
			req.Body.Close()
		}
		return nil, err
	}
	r := req.Clone(req.Context())
	r.Header.Set(tgtHeader, tok.AccessToken)
	return t.base.RoundTrip(r)
}

type mcpRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type mcpItem struct {
	Date  string   `json:"date"`
	Hour  string   `json:"hour"`
	Price *float64 `json:"price"`
}

type mcpResponse struct {
	Items []mcpItem `json:"items"`
}

// DayAheadPrices returns the 24 hourly PTF values (TL/MWh) of the local day containing day,
// index 0 being 00:00.
func (hc *Client) DayAheadPrices(ctx context.Context, day time.Time) ([]float64, error) {
	d := day.In(hc.loc)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, hc.loc)
	body, err := json.Marshal(mcpRequest{StartDate: start.Format(dateLayout), EndDate: start.Format(dateLayout)})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hc.serviceURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	slog.Info("epias.mcp.fetch", "date", start.Format("2006-01-02"))
	resp, err := hc.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: %s", ErrAPI, resp.Status, snippet(b))
	}

	prices, err := parsePrices(b)
	if err != nil {
		return nil, err
	}
	if len(prices) != hoursPerDay {
		return nil, fmt.Errorf("%w: Expected 24 hours of data, got %d", ErrHourCount, len(prices))
	}
	return prices, nil
}

func parsePrices(b []byte) ([]float64, error) {
	var messages []string
	if err := json.Unmarshal(b, &messages); err == nil && len(messages) > 0 {
		if len(messages) > 5 {
			messages = messages[:5]
		}
		return nil, fmt.Errorf("%w: %s", ErrAPI, strings.Join(messages, ", "))
	}
	var items []mcpItem
	var wrapped mcpResponse
	if err := json.Unmarshal(b, &wrapped); err == nil && wrapped.Items != nil {
		items = wrapped.Items
	} else if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("%w Response: %s", ErrNoPrices, snippet(b))
	}
	var prices []float64
	for _, it := range items {
		if it.Price != nil {
			prices = append(prices, *it.Price)
		}
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%w Response: %s", ErrNoPrices, snippet(b))
	}
	return prices, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, rc)
	return rc.Close()
}

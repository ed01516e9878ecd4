// Package translate calls an external LibreTranslate compatible service
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	perr "stackscout/internal/platform/errors"
	"stackscout/internal/platform/logger"

	"golang.org/x/text/language"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 15 * time.Second
	defaultSource  = "auto"
)

// Options configures the Client
type Options struct {
	BaseURL string
	APIKey  string
	// Source is the source language code, "auto" lets the service detect it
	Source  string
	Timeout time.Duration

	// RPS and Burst shape outgoing requests, zero RPS disables the limiter
	RPS   float64
	Burst int
}

// Client translates text with a single attempt per call
type Client struct {
	http *http.Client
	opts Options
	lim  *rate.Limiter
	log  logger.Logger
}

type request struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type response struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

// NewClient builds a Client
func NewClient(o Options) *Client {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Source == "" {
		o.Source = defaultSource
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	var lim *rate.Limiter
	if o.RPS > 0 {
		if o.Burst <= 0 {
			o.Burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(o.RPS), o.Burst)
	}
	return &Client{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		lim:  lim,
		log:  *logger.Named("translate"),
	}
}

// Translate returns text rendered in target
func (c *Client) Translate(ctx context.Context, text string, target language.Tag) (string, error) {
	if c.opts.BaseURL == "" {
		return "", perr.New(perr.ErrorCodeUnavailable, "translate: no endpoint configured")
	}
	if c.lim != nil {
		if err := c.lim.Wait(ctx); err != nil {
			return "", err
		}
	}

	body, err := json.Marshal(request{
		Q:      text,
		Source: c.opts.Source,
		Target: WireCode(target),
		Format: "text",
		APIKey: c.opts.APIKey,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnknown, "translate new request failed")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "translate request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "translate read body failed")
	}
	c.log.Debug().
		Int("status", resp.StatusCode).
		Str("target", target.String()).
		Dur("latency", time.Since(start)).
		Msg("translate http response")

	var out response
	_ = json.Unmarshal(raw, &out)
	if resp.StatusCode != http.StatusOK {
		msg := out.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", perr.Newf(perr.ErrorCodeUnavailable, "translate status %d: %s", resp.StatusCode, msg)
	}
	if strings.TrimSpace(out.TranslatedText) == "" {
		return "", perr.New(perr.ErrorCodeUnavailable, "translate returned empty text")
	}
	return out.TranslatedText, nil
}

// WireCode maps a BCP 47 tag to the code the service expects
// Chinese keeps its script so zh-CN and zh-TW stay distinct
func WireCode(t language.Tag) string {
	base, _ := t.Base()
	if base.String() == "zh" {
		script, _ := t.Script()
		return fmt.Sprintf("zh-%s", script.String())
	}
	return base.String()
}

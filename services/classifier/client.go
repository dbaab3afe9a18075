// Package classifiersvc talks to the external classification endpoint the chat proxies queries to.
package classifiersvc

import (
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"

	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/intelliscript/intelliscript/core"
	"github.com/intelliscript/intelliscript/core/chat"
)

// maxErrorBody caps how much of a failed response is read into a StatusError.
const maxErrorBody = 4 << 10

type Client struct {
	http    *http.Client
	url     string
	token   string
	limiter *rate.Limiter
}

var (
	_ chat.Classifier = (*Client)(nil)
	_ chat.Fetcher    = (*Client)(nil)
)

func NewClient(conf *core.Config) *Client {
	limit := rate.Inf
	if conf.Classifier.RatePerSecond > 0 {
		limit = rate.Limit(conf.Classifier.RatePerSecond)
	}
	burst := conf.Classifier.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		http:    &http.Client{Timeout: conf.Classifier.Timeout},
		url:     conf.Classifier.URL,
		token:   conf.Classifier.AuthToken,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (c *Client) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "waiting for rate limiter")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating request")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// Classify sends GET {url}?user_query=&user_id=&user_role= and returns the raw body.
func (c *Client) Classify(ctx context.Context, q chat.Query) ([]byte, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing classifier url")
	}
	params := u.Query()
	params.Set("user_query", q.Text)
	params.Set("user_id", q.UserID)
	params.Set("user_role", q.Role)
	u.RawQuery = params.Encode()

	req, err := c.newRequest(ctx, u.String())
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "sending query")
	}
	defer func() { _ = resp.Body.Close() }()

	if err = checkStatus(resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response")
	}
	return body, nil
}

// Fetch downloads rawURL with the client credentials. The caller closes the body.
func (c *Client) Fetch(ctx context.Context, rawURL string) (chat.Download, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return chat.Download{}, errors.Errorf("unsupported attachment url %q", rawURL)
	}
	req, err := c.newRequest(ctx, u.String())
	if err != nil {
		return chat.Download{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return chat.Download{}, errors.Wrap(err, "downloading attachment")
	}
	if err = checkStatus(resp); err != nil {
		_ = resp.Body.Close()
		return chat.Download{}, err
	}
	return chat.Download{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		Filename:    responseFilename(resp),
	}, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &chat.StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(body)}
}

// responseFilename: the Content-Disposition filename, else the last segment of the request path.
func responseFilename(resp *http.Response) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			return path.Base(params["filename"])
		}
	}
	if resp.Request != nil && resp.Request.URL != nil {
		if base := path.Base(resp.Request.URL.Path); base != "." && base != "/" {
			return base
		}
	}
	return ""
}

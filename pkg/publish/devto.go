// Package publish pushes generated posts to external publishing platforms.
// DEV.to is the only backend; drafts are the default so nothing goes live
// without an explicit flag.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/scholarshare/scholarshare/pkg/blog"
	"github.com/scholarshare/scholarshare/pkg/errors"
	"github.com/scholarshare/scholarshare/pkg/httputil"
)

// DefaultBaseURL is the DEV.to API root.
const DefaultBaseURL = "https://dev.to/api"

// Article is the DEV.to representation of a published or drafted post.
type Article struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Published bool   `json:"published"`
}

// DevtoClient talks to the DEV.to REST API.
type DevtoClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewDevtoClient creates a client. baseURL may be empty for production; an
// httptest server URL overrides it in tests.
func NewDevtoClient(apiKey, baseURL string) *DevtoClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &DevtoClient{apiKey: apiKey, baseURL: baseURL, http: httputil.NewClient()}
}

type articleRequest struct {
	Article articleBody `json:"article"`
}

type articleBody struct {
	Title        string   `json:"title"`
	BodyMarkdown string   `json:"body_markdown"`
	Published    bool     `json:"published"`
	Tags         []string `json:"tags"`
	Description  string   `json:"description"`
}

// Publish creates an article from a post. publishNow false leaves it as a
// draft. Transient failures (5xx, network) are retried with backoff.
func (c *DevtoClient) Publish(ctx context.Context, post blog.Post, publishNow bool) (Article, error) {
	if c.apiKey == "" {
		return Article{}, errors.New(errors.ErrCodeUnauthorized, "no DEV.to API key configured")
	}

	payload, err := json.Marshal(articleRequest{Article: articleBody{
		Title:        post.Title,
		BodyMarkdown: post.Content,
		Published:    publishNow,
		Tags:         post.Tags,
		Description:  post.MetaDescription,
	}})
	if err != nil {
		return Article{}, errors.Wrap(errors.ErrCodeInternal, err, "encode article")
	}

	var article Article
	err = httputil.RetryWithBackoff(ctx, func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/articles", bytes.NewReader(payload))
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("api-key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		return c.do(req, &article)
	})
	if err != nil {
		return Article{}, err
	}
	return article, nil
}

// ListPublished returns the caller's published articles.
func (c *DevtoClient) ListPublished(ctx context.Context, perPage int) ([]Article, error) {
	if c.apiKey == "" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "no DEV.to API key configured")
	}
	if perPage <= 0 {
		perPage = 10
	}

	var articles []Article
	err := httputil.RetryWithBackoff(ctx, func() error {
		url := fmt.Sprintf("%s/articles/me/published?per_page=%d", c.baseURL, perPage)
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if reqErr != nil {
			return reqErr
		}
		req.Header.Set("api-key", c.apiKey)

		return c.do(req, &articles)
	})
	if err != nil {
		return nil, err
	}
	return articles, nil
}

// do executes the request and decodes the JSON response into out. 5xx and
// 429 responses are marked retryable; other non-2xx statuses are final.
func (c *DevtoClient) do(req *http.Request, out any) error {
	resp, err := httputil.Do(c.http, req)
	if err != nil {
		return httputil.Retryable(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return httputil.Retryable(err)
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return httputil.Retryable(errors.New(errors.ErrCodeRateLimited, "devto returned %d", resp.StatusCode))
	case resp.StatusCode == http.StatusUnauthorized:
		return errors.New(errors.ErrCodeUnauthorized, "devto rejected the API key")
	case resp.StatusCode >= 300:
		return errors.New(errors.ErrCodeProvider, "devto returned %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(errors.ErrCodeProvider, err, "decode devto response")
	}
	return nil
}

package httputil

import (
	"net/http"
	"time"

	"github.com/scholarshare/scholarshare/pkg/observability"
)

// DefaultTimeout bounds outbound API requests.
const DefaultTimeout = 30 * time.Second

// NewClient returns an http.Client with the default timeout.
func NewClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// Do executes req with client and emits HTTP observability events.
// A nil client uses a default-timeout client.
func Do(client *http.Client, req *http.Request) (*http.Response, error) {
	if client == nil {
		client = NewClient()
	}

	ctx := req.Context()
	start := time.Now()
	observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)

	resp, err := client.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, err
	}
	observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))
	return resp, nil
}

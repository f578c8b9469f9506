package sdk

import "net/http"

// Option configures the Client.
type Option func(*Client)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the default HTTP client (timeouts, transport).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// QueryOption configures a single query.
type QueryOption func(*queryRequest)

// WithCategory restricts retrieval to passages of one category.
func WithCategory(category string) QueryOption {
	return func(r *queryRequest) { r.Type = category }
}

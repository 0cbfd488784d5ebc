package domain

// SavedRequest is an HTTP request template from the request builder.
// Headers is the raw "Key: Value" block exactly as typed in the page.
type SavedRequest struct {
	Name              string `json:"name" validate:"required"`
	Method            string `json:"method" validate:"required"`
	URL               string `json:"url" validate:"required"`
	Headers           string `json:"headers"`
	Body              string `json:"body"`
	AuthType          string `json:"auth_type,omitempty"`
	OAuthTokenURL     string `json:"oauth_token_url,omitempty"`
	OAuthClientID     string `json:"oauth_client_id,omitempty"`
	OAuthClientSecret string `json:"oauth_client_secret,omitempty"`
	OAuthScope        string `json:"oauth_scope,omitempty"`
}

// SavedRequestStore persists saved requests as one document.
type SavedRequestStore interface {
	LoadRequests() ([]SavedRequest, error)
	SaveRequests(requests []SavedRequest) error
}

// ProxyRequest is a request the browser asks the server to perform on its behalf.
type ProxyRequest struct {
	Method  string            `json:"method" validate:"required"`
	URL     string            `json:"url" validate:"required"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

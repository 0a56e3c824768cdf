package api

import (
	"context"
	"net/http"
)

const pageViewPath = "/statistics/page-view"

// Telemetry records usage statistics. Calls never raise notices.
type Telemetry struct {
	client *Client
}

func NewTelemetry(client *Client) *Telemetry {
	return &Telemetry{client: client}
}

type pageView struct {
	Path    string `json:"path"`
	Referer string `json:"referer,omitempty"`
}

// RecordPageView reports a visit to path, authenticated with accessToken.
func (t *Telemetry) RecordPageView(ctx context.Context, accessToken, path string) error {
	return t.client.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        pageViewPath,
		Body:        pageView{Path: path},
		AccessToken: accessToken,
		Quiet:       true,
	}, nil)
}

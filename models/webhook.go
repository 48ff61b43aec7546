package models

import "time"

type Webhook struct {
	Id         int64
	Url        string
	EventTypes *string
	Enabled    bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CreateWebhookInput struct {
	Url        string
	EventTypes *string
	Enabled    *bool
}

type UpdateWebhookInput struct {
	Url        *string
	EventTypes *string
	Enabled    *bool
}

// DispatchResult is the outcome of a webhook delivery attempt that reached
// the remote host. Any HTTP status counts, including 4xx and 5xx: the caller
// decides what to do with it. Transport failures are returned as errors
// wrapping TransportError instead.
type DispatchResult struct {
	StatusCode  int
	BodySnippet string
}

func (r DispatchResult) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Package email defines the core email data model shared by intake, storage
// and dispatch.
package email

import "time"

// NoSubject is stored when an inbound message carries no Subject header.
const NoSubject = "(No Subject)"

// TimestampLayout is the ISO-8601 layout used for received_at. It has fixed
// width so that lexical order matches chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Record is one received message as persisted in the email store.
type Record struct {
	ID         int64
	Sender     string
	Recipient  string
	Subject    string
	Body       string
	HTMLBody   string
	ReceivedAt string
}

// Summary is the list projection of a Record. The HTML body is never
// included.
type Summary struct {
	ID         int64  `json:"id"`
	Sender     string `json:"sender"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	ReceivedAt string `json:"received_at"`
}

// OutboundRequest is a compose request relayed to an outbound provider.
// It is never persisted.
type OutboundRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

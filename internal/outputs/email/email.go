// Package email defines the delivery contract for rendered digests.
package email

import "context"

// Message is a single outgoing email. HTML is the primary body; Text, when
// set, is attached as the plain-text alternative.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

type Sender interface {
	Send(ctx context.Context, message Message) error
}

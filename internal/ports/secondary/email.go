package secondary

import "context"

// EmailMessage is a rendered message ready for delivery.
type EmailMessage struct {
	From     string
	To       []string
	Subject  string
	BodyHTML string
}

// EmailSender defines the secondary port for e-mail delivery.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

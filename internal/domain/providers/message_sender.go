package providers

import "context"

// MessageSender delivers messages to a recipient over the messaging transport.
// Both methods return the transport's message id.
type MessageSender interface {
	SendText(ctx context.Context, to, body string) (string, error)

	// SendTemplate sends a pre-approved template, required for recipients
	// who have not messaged us recently.
	SendTemplate(ctx context.Context, to, templateName, languageCode string, parameters []string) (string, error)
}

package notify

import (
	"context"
	"fmt"
	"strings"

	"mapdata-api/internal/apierror"
)

// ExceptionOptions configures exception emails.
type ExceptionOptions struct {
	ServiceName string
	From        string
	// To lists recipients separated by "," or ";".
	To      string
	Subject string
}

// ExceptionNotifier emails a summary of every normalized failure. It
// satisfies apierror.Notifier.
type ExceptionNotifier struct {
	mailer     Mailer
	dispatcher *Dispatcher
	opts       ExceptionOptions
}

func NewExceptionNotifier(m Mailer, d *Dispatcher, opts ExceptionOptions) *ExceptionNotifier {
	return &ExceptionNotifier{mailer: m, dispatcher: d, opts: opts}
}

// Notify hands the email to the dispatcher and returns immediately.
func (n *ExceptionNotifier) Notify(ctx context.Context, r apierror.Report) {
	msg := n.Compose(r)
	_ = n.dispatcher.Go(ctx, "exception-email", func(ctx context.Context) error {
		return n.mailer.Send(ctx, msg)
	})
}

// Compose builds the email for r.
func (n *ExceptionNotifier) Compose(r apierror.Report) Message {
	var errText string
	if r.Err != nil {
		errText = fmt.Sprintf("%T: %v", r.Err, r.Err)
	}
	body := fmt.Sprintf("Service Connect MicroService: %s\n\n%s\n\n%s", n.opts.ServiceName, r.Envelope, errText)

	return Message{
		From: Address{
			Address:     n.opts.From,
			DisplayName: strings.TrimSpace(r.BusinessUnit + " Web Services"),
		},
		To:      SplitRecipients(n.opts.To),
		Subject: n.opts.Subject,
		Body:    body,
	}
}

// SplitRecipients parses a "," or ";" separated list. Blank entries are skipped.
func SplitRecipients(s string) []Address {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]Address, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, Address{Address: p, DisplayName: p})
	}
	return out
}

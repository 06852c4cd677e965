package forward

import (
	"fmt"
	"strings"

	"github.com/joshsymonds/replyrelay/internal/gmail"
	"github.com/joshsymonds/replyrelay/internal/parse"
	"github.com/joshsymonds/replyrelay/internal/quote"
)

const (
	mimeHTML  = "text/html"
	mimePlain = "text/plain"
)

// Payload is the body posted to the receiving API. FromName is null when the
// From header carries no display name.
type Payload struct {
	EmailID   string  `json:"emailId"`
	FromEmail string  `json:"fromEmail"`
	FromName  *string `json:"fromName"`
	Subject   string  `json:"subject"`
	FullHTML  string  `json:"fullHtml"`
	HTMLReply string  `json:"htmlReply"`
	FullText  string  `json:"fullText"`
	TextReply string  `json:"textReply"`
}

// ParseSender splits a From header of the form `Display Name <user@host>`.
// Without angle brackets the whole value is taken as the address and name is nil.
func ParseSender(from string) (email string, name *string) {
	if !strings.Contains(from, "<") {
		return from, nil
	}
	display, rest, found := strings.Cut(from, " <")
	if !found {
		display, rest, _ = strings.Cut(from, "<")
	}
	email, _, _ = strings.Cut(rest, ">")
	if display = strings.TrimSpace(display); display != "" {
		name = &display
	}
	return strings.TrimSpace(email), name
}

// Build derives the forward payload for msg. Both an HTML and a plain text
// part are required.
func Build(msg gmail.Message, ex quote.Extractor) (Payload, error) {
	from, err := parse.Header(msg, "From")
	if err != nil {
		return Payload{}, fmt.Errorf("message %s: %w", msg.ID, err)
	}
	subject, err := parse.Header(msg, "Subject")
	if err != nil {
		return Payload{}, fmt.Errorf("message %s: %w", msg.ID, err)
	}
	fullHTML, err := parse.Body(msg, mimeHTML)
	if err != nil {
		return Payload{}, fmt.Errorf("message %s: %w", msg.ID, err)
	}
	fullText, err := parse.Body(msg, mimePlain)
	if err != nil {
		return Payload{}, fmt.Errorf("message %s: %w", msg.ID, err)
	}

	email, name := ParseSender(from)
	return Payload{
		EmailID:   string(msg.ID),
		FromEmail: email,
		FromName:  name,
		Subject:   subject,
		FullHTML:  string(fullHTML),
		HTMLReply: ex.ExtractReply(string(fullHTML), true),
		FullText:  string(fullText),
		TextReply: ex.ExtractReply(string(fullText), false),
	}, nil
}

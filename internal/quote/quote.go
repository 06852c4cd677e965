// Package quote separates newly written reply text from quoted history.
package quote

// Extractor returns the part of an email body judged to be the new reply.
// Init performs one-time setup and may be called more than once.
type Extractor interface {
	Init() error
	ExtractReply(body string, isHTML bool) string
}

// Nop returns bodies unchanged.
type Nop struct{}

func (Nop) Init() error { return nil }

func (Nop) ExtractReply(body string, _ bool) string { return body }

var (
	_ Extractor = (*Heuristic)(nil)
	_ Extractor = Nop{}
)

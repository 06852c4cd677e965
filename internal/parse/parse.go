// Package parse pulls headers and body parts out of fetched messages.
package parse

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/joshsymonds/replyrelay/internal/gmail"
)

type Kind int

const (
	HeaderNotFound Kind = iota + 1
	MimeTypeNotFound
)

func (k Kind) String() string {
	switch k {
	case HeaderNotFound:
		return "header not found"
	case MimeTypeNotFound:
		return "mime type not found"
	default:
		return "not found"
	}
}

var (
	ErrHeaderNotFound   = &NotFoundError{Kind: HeaderNotFound}
	ErrMimeTypeNotFound = &NotFoundError{Kind: MimeTypeNotFound}
)

// NotFoundError names the header or MIME type a message lacked.
type NotFoundError struct {
	Kind Kind
	Key  string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Key)
}

// Is matches on Kind, so errors.Is(err, ErrHeaderNotFound) holds for any key.
func (e *NotFoundError) Is(target error) bool {
	var t *NotFoundError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Key == "" || t.Key == e.Key)
}

// Header returns the value of the first header named exactly name.
func Header(msg gmail.Message, name string) (string, error) {
	for _, h := range msg.Headers {
		if h.Name == name {
			return h.Value, nil
		}
	}
	return "", &NotFoundError{Kind: HeaderNotFound, Key: name}
}

// Body returns the decoded content of the first top-level part with the given
// MIME type. Nested multipart trees are not searched.
func Body(msg gmail.Message, mimeType string) ([]byte, error) {
	for _, p := range msg.Parts {
		if p.MimeType != mimeType {
			continue
		}
		data, err := DecodeBase64URL(p.Data)
		if err != nil {
			return nil, fmt.Errorf("decode %s part of %s: %w", mimeType, msg.ID, err)
		}
		return data, nil
	}
	return nil, &NotFoundError{Kind: MimeTypeNotFound, Key: mimeType}
}

// DecodeBase64URL accepts padded and unpadded URL-safe base64.
func DecodeBase64URL(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}

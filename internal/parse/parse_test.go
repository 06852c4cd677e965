package parse

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/replyrelay/internal/gmail"
)

func sampleMessage() gmail.Message {
	return gmail.Message{
		ID: "m1",
		Headers: []gmail.Header{
			{Name: "From", Value: "Jane Doe <jane@example.com>"},
			{Name: "Subject", Value: "First"},
			{Name: "Subject", Value: "Second"},
		},
		Parts: []gmail.Part{
			{MimeType: "text/plain", Data: "SGVsbG8rV29ybGQ"},
			{MimeType: "text/html", Data: "PGI-SGk8L2I-"},
			{MimeType: "text/html", Data: "aWdub3JlZA"},
		},
	}
}

func TestHeader(t *testing.T) {
	msg := sampleMessage()

	tests := []struct {
		name    string
		key     string
		want    string
		wantErr bool
	}{
		{name: "present", key: "From", want: "Jane Doe <jane@example.com>"},
		{name: "first match wins", key: "Subject", want: "First"},
		{name: "case sensitive", key: "from", wantErr: true},
		{name: "absent", key: "Reply-To", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Header(msg, tt.key)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrHeaderNotFound)
				var nf *NotFoundError
				require.True(t, errors.As(err, &nf))
				assert.Equal(t, tt.key, nf.Key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBody(t *testing.T) {
	msg := sampleMessage()

	got, err := Body(msg, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "Hello+World", string(got))

	got, err = Body(msg, "text/html")
	require.NoError(t, err)
	assert.Equal(t, "<b>Hi</b>", string(got))

	_, err = Body(msg, "application/pdf")
	require.ErrorIs(t, err, ErrMimeTypeNotFound)
	assert.NotErrorIs(t, err, ErrHeaderNotFound)
	assert.EqualError(t, err, "mime type not found: application/pdf")
}

func TestBodyDoesNotRecurse(t *testing.T) {
	msg := gmail.Message{Parts: []gmail.Part{{MimeType: "multipart/alternative"}}}
	_, err := Body(msg, "text/plain")
	require.ErrorIs(t, err, ErrMimeTypeNotFound)
}

func TestBodyInvalidBase64(t *testing.T) {
	msg := gmail.Message{ID: "m1", Parts: []gmail.Part{{MimeType: "text/plain", Data: "!!not base64!!"}}}
	_, err := Body(msg, "text/plain")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMimeTypeNotFound)
}

func TestDecodeBase64URL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unpadded", "SGVsbG8", "Hello"},
		{"padded", "SGVsbG8=", "Hello"},
		{"url alphabet", "Pz8_", "???"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBase64URL(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestNotFoundErrorIsMatchesKey(t *testing.T) {
	err := error(&NotFoundError{Kind: HeaderNotFound, Key: "From"})
	assert.ErrorIs(t, err, &NotFoundError{Kind: HeaderNotFound, Key: "From"})
	assert.NotErrorIs(t, err, &NotFoundError{Kind: HeaderNotFound, Key: "Subject"})
}

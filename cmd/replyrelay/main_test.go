package main

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/replyrelay/internal/forward"
	"github.com/joshsymonds/replyrelay/internal/gmail"
)

func attrMap(attrs []any) map[string]any {
	out := map[string]any{}
	for i := 0; i+1 < len(attrs); i += 2 {
		out[attrs[i].(string)] = attrs[i+1]
	}
	return out
}

func TestFailureAttrsProviderError(t *testing.T) {
	err := fmt.Errorf("run relay: %w", &gmail.ProviderError{
		Op: "modify", Resource: "users/me/messages/a/modify", Code: 403, Message: "Insufficient Permission",
	})
	got := attrMap(failureAttrs(err))
	assert.Equal(t, 403, got["status"])
	assert.Equal(t, "users/me/messages/a/modify", got["resource"])
	assert.Equal(t, "Insufficient Permission", got["message"])
}

func TestFailureAttrsHTTPError(t *testing.T) {
	err := fmt.Errorf("forward message a: %w", &forward.HTTPError{
		StatusCode: 500, Status: "500 Internal Server Error", Body: []byte(`oops`),
	})
	got := attrMap(failureAttrs(err))
	assert.Equal(t, 500, got["http_status"])
	assert.Equal(t, "oops", got["response"])
}

func TestRunRejectsIncompleteConfig(t *testing.T) {
	for _, env := range []string{"INBOX", "HANDLED_LABEL_NAME", "API_ENDPOINT", "API_AUTHORIZATION_HEADER"} {
		t.Setenv(env, "")
	}
	cmd := newRootCmd()
	cmd.SetArgs([]string{"run"})
	cmd.SetOut(&bytes.Buffer{})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
	assert.Contains(t, err.Error(), "HANDLED_LABEL_NAME")
}

func TestPrintLabels(t *testing.T) {
	var out bytes.Buffer
	cmd := newLabelsCmd()
	cmd.SetOut(&out)
	require.NoError(t, printLabels(cmd, []gmail.Label{
		{ID: "INBOX", Name: "INBOX", Type: "system"},
		{ID: "Label_42", Name: "handled", Type: "user"},
	}))
	assert.Contains(t, out.String(), "Label_42  handled")
}

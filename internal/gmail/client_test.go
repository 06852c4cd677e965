package gmail

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

type pagedClient struct {
	pages  map[string]ListPage
	tokens []string
	err    error
}

func (p *pagedClient) List(ctx context.Context, q Query, pageToken string, pageSize int) (ListPage, error) {
	_ = ctx
	_ = q
	_ = pageSize
	p.tokens = append(p.tokens, pageToken)
	if p.err != nil {
		return ListPage{}, p.err
	}
	return p.pages[pageToken], nil
}

func (p *pagedClient) Get(ctx context.Context, id MessageID) (Message, error) {
	return Message{ID: id}, nil
}

func (p *pagedClient) Modify(ctx context.Context, id MessageID, ops ModifyOps) error {
	return nil
}

func (p *pagedClient) ListLabels(ctx context.Context) ([]Label, error) {
	return nil, nil
}

func (p *pagedClient) EnsureLabel(ctx context.Context, name string) (LabelID, error) {
	return "", nil
}

func TestListAllFollowsTokens(t *testing.T) {
	c := &pagedClient{pages: map[string]ListPage{
		"":   {IDs: []MessageID{"a", "b"}, NextPageToken: "p2"},
		"p2": {IDs: []MessageID{"c"}, NextPageToken: "p3"},
		"p3": {IDs: []MessageID{"d", "e"}},
	}}
	waits := 0
	ids, err := ListAll(context.Background(), c, Query{Raw: "is:unread"}, 2, func(context.Context) error {
		waits++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []MessageID{"a", "b", "c", "d", "e"}, ids)
	assert.Equal(t, []string{"", "p2", "p3"}, c.tokens)
	assert.Equal(t, 3, waits)
}

func TestListAllDropsDuplicates(t *testing.T) {
	c := &pagedClient{pages: map[string]ListPage{
		"":   {IDs: []MessageID{"a", "b"}, NextPageToken: "p2"},
		"p2": {IDs: []MessageID{"b", "c"}},
	}}
	ids, err := ListAll(context.Background(), c, Query{}, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []MessageID{"a", "b", "c"}, ids)
}

func TestListAllEmpty(t *testing.T) {
	c := &pagedClient{pages: map[string]ListPage{}}
	ids, err := ListAll(context.Background(), c, Query{}, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestListAllPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	c := &pagedClient{err: boom}
	_, err := ListAll(context.Background(), c, Query{}, 0, nil)
	require.ErrorIs(t, err, boom)

	waitErr := errors.New("canceled")
	_, err = ListAll(context.Background(), &pagedClient{}, Query{}, 0, func(context.Context) error {
		return waitErr
	})
	require.ErrorIs(t, err, waitErr)
}

func TestNewProviderError(t *testing.T) {
	apiErr := &googleapi.Error{
		Code:    404,
		Message: "Requested entity was not found.",
		Errors:  []googleapi.ErrorItem{{Reason: "notFound", Message: "Requested entity was not found."}},
	}
	err := NewProviderError("get", "users/me/messages/abc", apiErr)

	assert.Equal(t, 404, err.Code)
	assert.Equal(t, "Requested entity was not found.", err.Message)
	assert.Equal(t, []string{"notFound: Requested entity was not found."}, err.Details)
	assert.Equal(t, "gmail get users/me/messages/abc: status 404: Requested entity was not found.", err.Error())

	var target *googleapi.Error
	assert.True(t, errors.As(err, &target))
}

func TestNewProviderErrorTransport(t *testing.T) {
	err := NewProviderError("list", "users/me/messages", errors.New("dial tcp: refused"))
	assert.Zero(t, err.Code)
	assert.Equal(t, "gmail list users/me/messages: dial tcp: refused", err.Error())
}

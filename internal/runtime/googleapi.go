// internal/runtime/googleapi.go: adapter from *gmail.Service to gmail.Client
package runtime

import (
	"context"
	"fmt"

	"google.golang.org/api/gmail/v1"

	gc "github.com/joshsymonds/replyrelay/internal/gmail"
)

const userID = "me"

type googleClient struct{ svc *gmail.Service }

func NewGoogleAPIClient(svc *gmail.Service) *googleClient { return &googleClient{svc} }

func (g *googleClient) List(ctx context.Context, q gc.Query, pageToken string, pageSize int) (gc.ListPage, error) {
	call := g.svc.Users.Messages.List(userID).Q(q.Raw)
	if pageSize > 0 {
		call = call.MaxResults(int64(pageSize))
	}
	if pageToken != "" {
		call = call.PageToken(pageToken)
	}
	res, err := call.Context(ctx).Do()
	if err != nil {
		return gc.ListPage{}, gc.NewProviderError("list", "users/me/messages", err)
	}
	page := gc.ListPage{NextPageToken: res.NextPageToken}
	for _, m := range res.Messages {
		page.IDs = append(page.IDs, gc.MessageID(m.Id))
	}
	return page, nil
}

func (g *googleClient) Get(ctx context.Context, id gc.MessageID) (gc.Message, error) {
	msg, err := g.svc.Users.Messages.Get(userID, string(id)).Format("full").Context(ctx).Do()
	if err != nil {
		return gc.Message{}, gc.NewProviderError("get", messagePath(id), err)
	}
	return toMessage(msg), nil
}

func (g *googleClient) Modify(ctx context.Context, id gc.MessageID, ops gc.ModifyOps) error {
	req := &gmail.ModifyMessageRequest{
		AddLabelIds:    toStrings(ops.AddLabels),
		RemoveLabelIds: toStrings(ops.RemoveLabels),
	}
	if _, err := g.svc.Users.Messages.Modify(userID, string(id), req).Context(ctx).Do(); err != nil {
		return gc.NewProviderError("modify", messagePath(id)+"/modify", err)
	}
	return nil
}

func (g *googleClient) ListLabels(ctx context.Context) ([]gc.Label, error) {
	lr, err := g.svc.Users.Labels.List(userID).Context(ctx).Do()
	if err != nil {
		return nil, gc.NewProviderError("labels.list", "users/me/labels", err)
	}
	labels := make([]gc.Label, 0, len(lr.Labels))
	for _, l := range lr.Labels {
		labels = append(labels, gc.Label{ID: gc.LabelID(l.Id), Name: l.Name, Type: l.Type})
	}
	return labels, nil
}

func (g *googleClient) EnsureLabel(ctx context.Context, name string) (gc.LabelID, error) {
	labels, err := g.ListLabels(ctx)
	if err != nil {
		return "", err
	}
	for _, l := range labels {
		if l.Name == name {
			return l.ID, nil
		}
	}
	created, err := g.svc.Users.Labels.Create(userID, &gmail.Label{Name: name}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create label %q: %w", name, gc.NewProviderError("labels.create", "users/me/labels", err))
	}
	return gc.LabelID(created.Id), nil
}

func messagePath(id gc.MessageID) string {
	return "users/me/messages/" + string(id)
}

// toMessage keeps only the top-level parts; a single-part payload becomes its
// own only part.
func toMessage(msg *gmail.Message) gc.Message {
	out := gc.Message{ID: gc.MessageID(msg.Id), Snippet: msg.Snippet}
	for _, l := range msg.LabelIds {
		out.LabelIDs = append(out.LabelIDs, gc.LabelID(l))
	}
	if msg.Payload == nil {
		return out
	}
	for _, h := range msg.Payload.Headers {
		out.Headers = append(out.Headers, gc.Header{Name: h.Name, Value: h.Value})
	}
	parts := msg.Payload.Parts
	if len(parts) == 0 {
		parts = []*gmail.MessagePart{msg.Payload}
	}
	for _, p := range parts {
		part := gc.Part{MimeType: p.MimeType}
		if p.Body != nil {
			part.Data = p.Body.Data
		}
		out.Parts = append(out.Parts, part)
	}
	return out
}

func toStrings(ids []gc.LabelID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

var _ gc.Client = (*googleClient)(nil)

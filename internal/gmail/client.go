package gmail

import "context"

// Client is the narrow Gmail surface required by replyrelay.
type Client interface {
	List(ctx context.Context, q Query, pageToken string, pageSize int) (ListPage, error)
	Get(ctx context.Context, id MessageID) (Message, error)
	Modify(ctx context.Context, id MessageID, ops ModifyOps) error
	ListLabels(ctx context.Context) ([]Label, error)
	EnsureLabel(ctx context.Context, name string) (LabelID, error)
}

// ListAll follows page tokens until exhausted and returns every matching id
// once, in the order the pages returned them. wait, when non-nil, is called
// before each page request.
func ListAll(
	ctx context.Context,
	c Client,
	q Query,
	pageSize int,
	wait func(context.Context) error,
) ([]MessageID, error) {
	var (
		all       []MessageID
		pageToken string
	)
	seen := map[MessageID]struct{}{}
	for {
		if wait != nil {
			if err := wait(ctx); err != nil {
				return nil, err
			}
		}
		page, err := c.List(ctx, q, pageToken, pageSize)
		if err != nil {
			return nil, err
		}
		for _, id := range page.IDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			all = append(all, id)
		}
		if page.NextPageToken == "" {
			return all, nil
		}
		pageToken = page.NextPageToken
	}
}

// internal/gmail/types.go
package gmail

type MessageID string
type LabelID string

// LabelUnread is the system label Gmail uses for unread mail.
const LabelUnread LabelID = "UNREAD"

type Header struct {
	Name  string
	Value string
}

// Part is one top-level MIME part. Data is the body as delivered by the API
// (base64url).
type Part struct {
	MimeType string
	Data     string
}

// Message is a fully fetched message. Headers and Parts keep API order.
type Message struct {
	ID       MessageID
	Snippet  string
	LabelIDs []LabelID
	Headers  []Header
	Parts    []Part
}

type Label struct {
	ID   LabelID
	Name string
	Type string // "system" or "user"
}

type ModifyOps struct {
	AddLabels    []LabelID
	RemoveLabels []LabelID
}

type Query struct {
	Raw string // Gmail query string, already formed (e.g., `is:unread to:support@example.com AND NOT label:handled`)
}

type ListPage struct {
	IDs           []MessageID
	NextPageToken string
}

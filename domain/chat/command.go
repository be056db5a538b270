package chat

// SendCommand is an incoming message-sending intent. The sender identity is
// trusted: it comes from the authenticated session, never from the payload.
type SendCommand struct {
	Sender   UserID `validate:"required"`
	Receiver UserID `validate:"required"`
	Content  string `validate:"required,max=5000"`
}

// ReadCommand acknowledges a single message as read by Reader.
type ReadCommand struct {
	Reader    UserID `validate:"required"`
	MessageID string `validate:"required"`
}

// HistoryQuery asks for one page of the conversation between the caller and
// With. Before and After reference message IDs; Before wins when both are
// set.
type HistoryQuery struct {
	User           UserID `validate:"required"`
	With           UserID `validate:"required"`
	Page           int    `validate:"min=0"`
	Limit          int    `validate:"min=0,max=500"`
	Before         string
	After          string
	IncludeDeleted bool
}

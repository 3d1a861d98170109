package domain

// RenderKind tells the transport what to do with a Render.
type RenderKind int

const (
	RenderPost RenderKind = iota + 1
	RenderEdit
	RenderDelete
)

func (k RenderKind) String() string {
	switch k {
	case RenderPost:
		return "post"
	case RenderEdit:
		return "edit"
	case RenderDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// MarshalText lets transports serialize the kind by name.
func (k RenderKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Button is an inline control attached to a rendered message.
type Button struct {
	Label  string `json:"label"`
	Action Action `json:"action"`
	Data   string `json:"data,omitempty"`
}

// Render is an outbound instruction for the transport layer.
type Render struct {
	Kind           RenderKind `json:"kind"`
	ConversationID string     `json:"conversationId"`
	MessageID      string     `json:"messageId"`
	ReplyTo        string     `json:"replyTo,omitempty"`
	Text           string     `json:"text,omitempty"`
	Buttons        []Button   `json:"buttons,omitempty"`
}

// TextEvent is an inbound plain-text chat message.
type TextEvent struct {
	ConversationID string
	UserID         string
	UserName       string
	MessageID      string
	Text           string
}

// ActionEvent is an inbound control action.
type ActionEvent struct {
	ConversationID string
	UserID         string
	UserName       string
	MessageID      string
	Action         Action
	Data           string
}

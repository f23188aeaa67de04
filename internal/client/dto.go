package client

type LoginRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	SessionMode    string `json:"session_mode"`
	IssuancePolicy string `json:"issuance_policy"`
}

type SendMessageRequest struct {
	Message         string `json:"message"`
	ClientMessageID string `json:"client_message_id"`
	Reference       string `json:"reference,omitempty"`
}

type SendMessageResponse struct {
	StreamID string `json:"stream_id"`
}

// streamEventData is the union of every stream event payload.
type streamEventData struct {
	ToolCallID  string `json:"tool_call_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Text        string `json:"text"`
	Message     string `json:"message"`
	Reason      string `json:"reason"`
}

package request

// BroadcastRequest is the request body for sending a server-wide message
type BroadcastRequest struct {
	Message string `json:"message"`
}

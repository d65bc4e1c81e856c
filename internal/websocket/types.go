// internal/websocket/types.go
package websocket

import "encoding/json"

// RPCRequest is a call from a viewer
type RPCRequest struct {
	ID     string          `json:"id"`     // echoed in the response
	Method string          `json:"method"` // e.g. "dispatch"
	Params json.RawMessage `json:"params,omitempty"`
}

// RPCResponse answers an RPCRequest
type RPCResponse struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// WSEvent is pushed to every viewer
type WSEvent struct {
	Type    string      `json:"type"` // e.g. "canvas:changed"
	Payload interface{} `json:"payload"`
}

// WSMessage is the envelope of every frame on the socket
type WSMessage struct {
	// "rpc_request", "rpc_response" or "event"
	Kind string `json:"kind"`

	Request  *RPCRequest  `json:"request,omitempty"`
	Response *RPCResponse `json:"response,omitempty"`
	Event    *WSEvent     `json:"event,omitempty"`
}

// SaveParams are the params of the "save" method
type SaveParams struct {
	Description string `json:"description"`
}

// Package models holds the response shapes shared by the service and tool layers.
package models

// MessageType classifies an advisory message attached to a response.
type MessageType string

const (
	MessageInfo    MessageType = "info"
	MessageWarning MessageType = "warning"
	MessageError   MessageType = "error"
)

// Message is an advisory note. It does not change whether a call succeeded.
type Message struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content"`
}

// Envelope is the JSON body every tool returns.
type Envelope struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Error    string      `json:"error,omitempty"`
	Messages []Message   `json:"messages,omitempty"`
}

// Response pairs a payload with advisory messages.
type Response[T any] struct {
	Data     T
	Messages []Message
}

// Info builds an info message.
func Info(content string) Message {
	return Message{Type: MessageInfo, Content: content}
}

// Warning builds a warning message.
func Warning(content string) Message {
	return Message{Type: MessageWarning, Content: content}
}

// Error builds an error message.
func Error(content string) Message {
	return Message{Type: MessageError, Content: content}
}

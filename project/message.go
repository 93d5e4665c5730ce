package project

import "time"

// Message is one entry in a project's append-only message log. Its
// identity is its sequence position, assigned at append time and never
// reused. Once appended, a message is immutable.
type Message struct {
	Seq       int       `json:"seq"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// AppendMessage appends a message to the log and returns its sequence
// position. Positions are strictly increasing with no gaps.
func (p *Project) AppendMessage(sender, content string) int {
	seq := len(p.Messages)
	p.Messages = append(p.Messages, Message{
		Seq:       seq,
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	return seq
}

// MessagesSince returns the messages at positions [cursor, len) in order.
// Returns nil if cursor is at or past the end of the log. A negative
// cursor reads from the beginning.
func (p *Project) MessagesSince(cursor int) []Message {
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(p.Messages) {
		return nil
	}
	out := make([]Message, len(p.Messages)-cursor)
	copy(out, p.Messages[cursor:])
	return out
}

package models

// Message lives inside its conversation document. IDs are unique within the
// conversation for its whole lifetime, including after deletions.
type Message struct {
	ID      string `json:"id"`
	Sender  string `json:"sender"`
	Content string `json:"content"`
	TS      int64  `json:"ts"`
	// Edited flips false->true on the first edit and never back.
	Edited    bool       `json:"edited,omitempty"`
	Reactions []Reaction `json:"reactions,omitempty"`
	// Attachment is an explicit optional; nil means no attachment.
	Attachment *Attachment `json:"attachment,omitempty"`
}

// Reaction pairs an emoji with the set of users who applied it. Count is
// derived and always equals len(Users); a user appears at most once.
type Reaction struct {
	Emoji string   `json:"emoji"`
	Users []string `json:"users"`
	Count int      `json:"count"`
}

// Attachment references a file in the external blob store; the bytes
// themselves never enter the conversation document. Filename carries the
// uploader-scoped name ("<uploader>-<originalName>").
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// FindReaction returns the reaction entry for emoji, or nil.
func (m *Message) FindReaction(emoji string) *Reaction {
	for i := range m.Reactions {
		if m.Reactions[i].Emoji == emoji {
			return &m.Reactions[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	out := *m
	out.Reactions = make([]Reaction, len(m.Reactions))
	for i, r := range m.Reactions {
		out.Reactions[i] = Reaction{Emoji: r.Emoji, Users: append([]string(nil), r.Users...), Count: r.Count}
	}
	if m.Attachment != nil {
		a := *m.Attachment
		out.Attachment = &a
	}
	return &out
}

// HasReacted reports whether user already reacted with this emoji.
func (r *Reaction) HasReacted(user string) bool {
	for _, u := range r.Users {
		if u == user {
			return true
		}
	}
	return false
}

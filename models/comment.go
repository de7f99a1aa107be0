package models

import "time"

// Thread types: a thread hangs off the whole logbook, one section, or one
// entry. Exactly one thread exists per distinct scope.
const (
	ThreadGeneral = "general"
	ThreadSection = "section"
	ThreadEntry   = "entry"
)

// CommentThread groups messages by scope. The composite unique index is what
// makes thread resolution deterministic: adding a comment to an existing
// scope appends to that thread instead of creating a duplicate.
// Scope columns are zero-valued, not NULL, when absent: MySQL treats NULLs
// as distinct in unique indexes, which would break the one-thread-per-scope
// guarantee.
type CommentThread struct {
	ThreadID     int    `gorm:"primaryKey;column:thread_id" json:"thread_id"`
	LogbookID    int    `gorm:"column:logbook_id;uniqueIndex:uq_thread_scope" json:"logbook_id"`
	ThreadType   string `gorm:"column:thread_type;uniqueIndex:uq_thread_scope" json:"thread_type"`
	EntryID      int    `gorm:"column:entry_id;uniqueIndex:uq_thread_scope" json:"entry_id,omitempty"`
	EntrySection string `gorm:"column:entry_section;uniqueIndex:uq_thread_scope" json:"entry_section,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`

	Messages []CommentMessage `gorm:"foreignKey:ThreadID" json:"messages,omitempty"`
}

// TableName specifies the table name for CommentThread.
func (CommentThread) TableName() string {
	return "comment_threads"
}

// CommentMessage is one message inside a thread. Messages are append-only;
// a correction is a new message, never an edit.
type CommentMessage struct {
	MessageID  int       `gorm:"primaryKey;column:message_id" json:"message_id"`
	ThreadID   int       `gorm:"column:thread_id;index" json:"thread_id"`
	AuthorID   int       `gorm:"column:author_id" json:"author_id"`
	AuthorRole string    `gorm:"column:author_role" json:"author_role"`
	Message    string    `gorm:"column:message" json:"message"`
	ReplyTo    *int      `gorm:"column:reply_to" json:"reply_to,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`

	Author *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}

// TableName specifies the table name for CommentMessage.
func (CommentMessage) TableName() string {
	return "comment_messages"
}

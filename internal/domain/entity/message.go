package entity

import "time"

const (
	MessageTypeText   = "text"
	MessageTypeFile   = "file"
	MessageTypeSystem = "system"
)

// FileRef points at an already-uploaded blob. The chat core never sees the
// bytes, only this reference from the upload collaborator.
type FileRef struct {
	OriginalName string `json:"original_name" firestore:"originalName"`
	MimeType     string `json:"mime_type" firestore:"mimeType"`
	SizeBytes    int64  `json:"size_bytes" firestore:"sizeBytes"`
	Path         string `json:"path" firestore:"path"`
}

type Message struct {
	ID         string   `json:"id" firestore:"id"`
	OrderID    string   `json:"order_id" firestore:"orderId"`
	Seq        int64    `json:"seq" firestore:"seq"`
	SenderID   string   `json:"sender_id" firestore:"senderId"`
	SenderName string   `json:"sender_name" firestore:"senderName"`
	Type       string   `json:"type" firestore:"type"`
	Body       string   `json:"body" firestore:"body"`
	File       *FileRef `json:"file,omitempty" firestore:"file,omitempty"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

package store

import "time"

const (
	DocumentTypePost     = "post"
	DocumentTypePage     = "page"
	DocumentTypeRevision = "revision"
)

type User struct {
	ID           string
	DisplayName  string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Document struct {
	ID        string
	Type      string
	Title     string
	Status    string
	ParentID  *string
	UpdatedBy string
	UpdatedAt time.Time
}

// IsRevision reports whether the document is a revision snapshot of another
// document rather than a document in its own right.
func (d Document) IsRevision() bool {
	return d.Type == DocumentTypeRevision
}

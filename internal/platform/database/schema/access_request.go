package schema

// AccessRequestTable represents the 'access.request' table
type AccessRequestTable struct {
	Table     string
	ID        string
	UserID    string
	BookID    string
	Status    string
	CreatedAt string
	UpdatedAt string
}

// AccessRequest is the schema definition for access.request
var AccessRequest = AccessRequestTable{
	Table:     "access.request",
	ID:        "id",
	UserID:    "userid",
	BookID:    "bookid",
	Status:    "status",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

// Columns returns all standard column names
func (t AccessRequestTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.BookID, t.Status, t.CreatedAt, t.UpdatedAt,
	}
}

// AccessRequestChapterTable represents the 'access.requestchapter' table.
// One row per requested chapter; each transitions independently.
type AccessRequestChapterTable struct {
	Table     string
	ID        string
	RequestID string
	ChapterID string
	Status    string
	DecidedAt string
}

// AccessRequestChapter is the schema definition for access.requestchapter
var AccessRequestChapter = AccessRequestChapterTable{
	Table:     "access.requestchapter",
	ID:        "id",
	RequestID: "requestid",
	ChapterID: "chapterid",
	Status:    "status",
	DecidedAt: "decidedat",
}

// Columns returns all standard column names
func (t AccessRequestChapterTable) Columns() []string {
	return []string{
		t.ID, t.RequestID, t.ChapterID, t.Status, t.DecidedAt,
	}
}

package schema

// AccessAssignmentTable represents the 'access.assignment' table.
// Uniquely keyed on (userid, bookid, chapterid) so that re-assigning
// a chapter replaces the expiry instead of creating a duplicate grant.
type AccessAssignmentTable struct {
	Table      string
	ID         string
	UserID     string
	BookID     string
	ChapterID  string
	AssignedAt string
	ExpiresAt  string
}

// AccessAssignment is the schema definition for access.assignment
var AccessAssignment = AccessAssignmentTable{
	Table:      "access.assignment",
	ID:         "id",
	UserID:     "userid",
	BookID:     "bookid",
	ChapterID:  "chapterid",
	AssignedAt: "assignedat",
	ExpiresAt:  "expiresat",
}

// Columns returns all standard column names
func (t AccessAssignmentTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.BookID, t.ChapterID, t.AssignedAt, t.ExpiresAt,
	}
}

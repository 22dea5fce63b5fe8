package schema

// CoreActivityLogTable represents the 'core.activitylog' table.
// One row per (user, book, chapter); pages and seconds accumulate.
type CoreActivityLogTable struct {
	Table       string
	ID          string
	UserID      string
	BookID      string
	ChapterID   string
	LastPage    string
	PagesViewed string
	SecondsRead string
	UpdatedAt   string
}

// CoreActivityLog is the schema definition for core.activitylog
var CoreActivityLog = CoreActivityLogTable{
	Table:       "core.activitylog",
	ID:          "id",
	UserID:      "userid",
	BookID:      "bookid",
	ChapterID:   "chapterid",
	LastPage:    "lastpage",
	PagesViewed: "pagesviewed",
	SecondsRead: "secondsread",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t CoreActivityLogTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.BookID, t.ChapterID, t.LastPage, t.PagesViewed, t.SecondsRead, t.UpdatedAt,
	}
}

package schema

// CoreChapterTable represents the 'core.chapter' table
type CoreChapterTable struct {
	Table       string
	ID          string
	BookID      string
	Name        string
	Description string
	PageFrom    string
	PageTo      string
	Price       string
	OrderIndex  string
	CreatedAt   string
	UpdatedAt   string
}

// CoreChapter is the schema definition for core.chapter
var CoreChapter = CoreChapterTable{
	Table:       "core.chapter",
	ID:          "id",
	BookID:      "bookid",
	Name:        "name",
	Description: "description",
	PageFrom:    "pagefrom",
	PageTo:      "pageto",
	Price:       "price",
	OrderIndex:  "orderindex",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

// Columns returns all standard column names
func (t CoreChapterTable) Columns() []string {
	return []string{
		t.ID, t.BookID, t.Name, t.Description, t.PageFrom, t.PageTo, t.Price, t.OrderIndex, t.CreatedAt, t.UpdatedAt,
	}
}

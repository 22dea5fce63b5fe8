package schema

// CoreBookTable represents the 'core.book' table
type CoreBookTable struct {
	Table     string
	ID        string
	Name      string
	Slug      string
	Subject   string
	Tags      string
	Contents  string
	CoverKey  string
	PDFKey    string
	Price     string
	CreatedAt string
	UpdatedAt string
}

// CoreBook is the schema definition for core.book
var CoreBook = CoreBookTable{
	Table:     "core.book",
	ID:        "id",
	Name:      "name",
	Slug:      "slug",
	Subject:   "subject",
	Tags:      "tags",
	Contents:  "contents",
	CoverKey:  "coverkey",
	PDFKey:    "pdfkey",
	Price:     "price",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

// Columns returns all standard column names
func (t CoreBookTable) Columns() []string {
	return []string{
		t.ID, t.Name, t.Slug, t.Subject, t.Tags, t.Contents, t.CoverKey, t.PDFKey, t.Price, t.CreatedAt, t.UpdatedAt,
	}
}

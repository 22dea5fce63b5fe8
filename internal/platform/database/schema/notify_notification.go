package schema

// NotifyNotificationTable represents the 'notify.notification' table
type NotifyNotificationTable struct {
	Table     string
	ID        string
	UserID    string
	Type      string
	Message   string
	IsRead    string
	ForAdmin  string
	CreatedAt string
}

// NotifyNotification is the schema definition for notify.notification
var NotifyNotification = NotifyNotificationTable{
	Table:     "notify.notification",
	ID:        "id",
	UserID:    "userid",
	Type:      "type",
	Message:   "message",
	IsRead:    "isread",
	ForAdmin:  "foradmin",
	CreatedAt: "createdat",
}

// Columns returns all standard column names
func (t NotifyNotificationTable) Columns() []string {
	return []string{
		t.ID, t.UserID, t.Type, t.Message, t.IsRead, t.ForAdmin, t.CreatedAt,
	}
}

package types

// Known snapshot field names.
const (
	FieldRoute        = "route"
	FieldFilter       = "filter"
	FieldSearch       = "search"
	FieldCategory     = "category"
	FieldSelectedOnly = "selectedOnly"
	FieldItems        = "items"
	FieldStatus       = "status"
	FieldError        = "error"
	FieldNotice       = "notice"
	FieldConfirm      = "confirm"
)

// Load status values carried in FieldStatus.
const (
	StatusIdle      = "idle"
	StatusLoading   = "loading"
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusCancelled = "cancelled"
)

// Filter values carried in FieldFilter. Any other value is treated as
// FilterAll by the derived-state engine.
const (
	FilterAll       = "all"
	FilterActive    = "active"
	FilterCompleted = "completed"
)

// CategoryAll disables category matching.
const CategoryAll = "all"

// Known routes. RouteHome is installed when nothing else is known.
const (
	RouteHome  = "/"
	RouteTodos = "/todos"
	RouteAbout = "/about"
)

// Routes lists the known routes.
func Routes() []string {
	return []string{RouteHome, RouteTodos, RouteAbout}
}

// Item is a single list entry. The JSON shape matches the common todo
// fixture format so remote lists decode without adaptation.
type Item struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	Category  string `json:"category,omitempty"`
	Selected  bool   `json:"selected,omitempty"`
}

// Confirmation describes a destructive action waiting for the user to
// accept or dismiss it. The zero value means nothing is pending.
type Confirmation struct {
	Action string `json:"action"`
	ItemID int64  `json:"item_id,omitempty"`
	Prompt string `json:"prompt"`
}

// Pending reports whether a confirmation is waiting.
func (c Confirmation) Pending() bool {
	return c.Action != ""
}

// Confirmation actions.
const (
	ActionRemove         = "remove"
	ActionRemoveSelected = "remove-selected"
	ActionClearCompleted = "clear-completed"
)

// DefaultFields returns the field values a fresh application starts from.
func DefaultFields() Partial {
	return Partial{
		FieldRoute:        RouteHome,
		FieldFilter:       FilterAll,
		FieldSearch:       "",
		FieldCategory:     CategoryAll,
		FieldSelectedOnly: false,
		FieldItems:        []Item{},
		FieldStatus:       StatusIdle,
		FieldError:        "",
		FieldNotice:       "",
		FieldConfirm:      Confirmation{},
	}
}

// Package notes implements per-user note CRUD. Every lookup and mutation
// after creation is keyed by (note id, creator), so a note is only ever
// visible to and editable by the user who created it.
package notes

// DefaultTitle is substituted when a note is submitted with an empty or
// whitespace-only title.
const DefaultTitle = "Untitled"

// Note is a single user note. Creator is immutable after creation.
type Note struct {
	ID      int
	Title   string
	Content string
	Creator int
}

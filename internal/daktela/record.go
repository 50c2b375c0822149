package daktela

// Record is a single flattened provider record: plain nested maps and lists,
// no wire-format wrappers.
type Record map[string]any

// String returns the named field as a string, empty when absent or not a
// string.
func (r Record) String(key string) string {
	s, _ := r[key].(string)
	return s
}

// Ref returns the named field normalized as a reference.
func (r Record) Ref(key string) Ref {
	return ParseRef(r[key])
}

// Ref is a normalized reference to a related entity. The provider returns
// related objects in two shapes: a bare identifier string, or an embedded
// object carrying at least a "name" identifier and usually a "title" display
// string. ParseRef reduces both to this one form.
type Ref struct {
	ID    string
	Title string
}

// ParseRef normalizes either reference shape. Unknown shapes yield a zero
// Ref.
func ParseRef(v any) Ref {
	switch ref := v.(type) {
	case string:
		return Ref{ID: ref}
	case map[string]any:
		id, _ := ref["name"].(string)
		title, _ := ref["title"].(string)
		return Ref{ID: id, Title: title}
	default:
		return Ref{}
	}
}

// Display returns the human-readable form: the title when the provider
// embedded one, the identifier otherwise.
func (r Ref) Display() string {
	if r.Title != "" {
		return r.Title
	}
	return r.ID
}

// IsZero reports whether the reference carries no information.
func (r Ref) IsZero() bool {
	return r.ID == "" && r.Title == ""
}

// ListResult is the outward data contract of every listing call: one page of
// flattened records plus the provider-reported total across all pages.
type ListResult struct {
	Records []Record `json:"data"`
	Total   int      `json:"total"`
}

package web

import "golang.org/x/text/message"

// Localizer translates message keys. *message.Printer implements it.
type Localizer interface {
	Sprintf(key message.Reference, a ...any) string
}

// BreadcrumbLabel returns the breadcrumb for path: "Home" for "/",
// "Create" for "/create" and "" for anything else. Paths are compared
// exactly; "/create/" has no label. A nil Localizer returns the English
// label.
func BreadcrumbLabel(path string, l Localizer) string {
	var key string
	switch path {
	case "/":
		key = "Home"
	case "/create":
		key = "Create"
	default:
		return ""
	}

	if l == nil {
		return key
	}
	return l.Sprintf(key)
}

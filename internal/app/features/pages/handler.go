// internal/app/features/pages/handler.go
package pages

import (
	"go.uber.org/zap"
)

// Page is a screen whose feature is not built yet.
type Page struct {
	Slug    string
	Title   string
	Tagline string
	Heading string
	Body    string
	Action  string // disabled header button, "" for none
}

// Placeholders are the screens the nav links to ahead of their features.
var Placeholders = []Page{
	{
		Slug:    "members",
		Title:   "Member Management",
		Tagline: "Manage cooperative members and their profiles",
		Heading: "Member Management Coming Soon",
		Body:    "This feature will allow you to add, remove, and manage cooperative members.",
		Action:  "Add Member",
	},
	{
		Slug:    "financial",
		Title:   "Financial Reporting",
		Tagline: "Track savings, transactions, and generate financial reports",
		Heading: "Financial Reporting Coming Soon",
		Body:    "This feature will provide comprehensive financial tracking and reporting tools.",
	},
	{
		Slug:    "meetings",
		Title:   "Meeting Scheduler",
		Tagline: "Schedule and manage cooperative meetings",
		Heading: "Meeting Scheduler Coming Soon",
		Body:    "This feature will allow you to schedule meetings and send notifications to members.",
		Action:  "Schedule Meeting",
	},
}

// Handler serves the placeholder pages.
type Handler struct {
	Log   *zap.Logger
	pages map[string]Page
}

// NewHandler constructs a Handler over Placeholders.
func NewHandler(logger *zap.Logger) *Handler {
	h := &Handler{Log: logger, pages: make(map[string]Page, len(Placeholders))}
	for _, p := range Placeholders {
		h.pages[p.Slug] = p
	}
	return h
}

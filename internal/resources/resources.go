// Package resources describes the console's list pages as configuration
// for the generic grid and dialog controllers.
package resources

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bekirdag/admin-console/internal/dialog"
	"github.com/bekirdag/admin-console/internal/grid"
)

// Job is a side task the server runs on request.
type Job struct {
	ID    string
	Label string
	Path  string
	// Refresh reloads the owning grid after the job succeeds.
	Refresh bool
}

// Resource bundles everything one page needs.
type Resource struct {
	ID     string
	Title  string
	Grid   grid.Config
	Dialog dialog.Config
	Jobs   []Job
}

// Names lists the resource ids in tab order.
func Names() []string {
	out := make([]string, 0, len(catalogue))
	for _, r := range catalogue {
		out = append(out, r.ID)
	}
	return out
}

// All returns the whole catalogue in tab order.
func All() []Resource {
	return slices.Clone(catalogue)
}

// Lookup finds a resource by id, case-insensitively.
func Lookup(id string) (Resource, bool) {
	for _, r := range catalogue {
		if strings.EqualFold(r.ID, strings.TrimSpace(id)) {
			return r, true
		}
	}
	return Resource{}, false
}

// Select returns the named resources in catalogue order. An empty list
// selects everything.
func Select(ids []string) ([]Resource, error) {
	if len(ids) == 0 {
		return All(), nil
	}
	want := map[string]bool{}
	for _, id := range ids {
		r, ok := Lookup(id)
		if !ok {
			return nil, fmt.Errorf("resources: unknown resource %q", id)
		}
		want[r.ID] = true
	}
	var out []Resource
	for _, r := range catalogue {
		if want[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

var catalogue = []Resource{
	contests(),
	members(),
	orders(),
	subjects(),
	tickets(),
	users(),
}

func contests() Resource {
	return Resource{
		ID:    "contests",
		Title: "Contests",
		Grid: grid.Config{
			TableID:  "contests",
			Title:    "contests",
			Resource: "/api/contests",
			Columns: []grid.Column{
				{Key: "id", Title: "ID", Width: 60, Kind: grid.Number, Sortable: true},
				{Key: "name", Title: "Name", Width: 240, Sortable: true},
				{Key: "place", Title: "Place", Width: 120, Sortable: true},
				{Key: "startDate", Title: "Start", Width: 110, Kind: grid.Date, Sortable: true},
				{Key: "endDate", Title: "End", Width: 110, Kind: grid.Date, Sortable: true},
				{Key: "capacity", Title: "Capacity", Width: 80, Kind: grid.Number, Sortable: true},
				{Key: "fee", Title: "Fee", Width: 90, Kind: grid.Money, Sortable: true},
				{Key: "published", Title: "Published", Width: 80, Kind: grid.Bool},
			},
			Filters: []grid.Filter{
				{Key: "place", Label: "Place", Facet: "places"},
				{Key: "startDate", Label: "From", Kind: grid.TextFilter},
				{Key: "endDate", Label: "To", Kind: grid.TextFilter},
				{Key: "published", Label: "Published", Kind: grid.BoolFilter},
			},
			DateRange:   &grid.DateRange{StartKey: "startDate", EndKey: "endDate"},
			DefaultSort: "startDate",
		},
		Dialog: dialog.Config{
			Noun:     "contest",
			Resource: "/api/contests",
			Fields: []dialog.Field{
				{Key: "name", Label: "Name", Required: true},
				{Key: "place", Label: "Place", Kind: dialog.SelectField, Facet: "places", Required: true},
				{Key: "startDate", Label: "Start date", Kind: dialog.DateField, Required: true},
				{Key: "endDate", Label: "End date", Kind: dialog.DateField},
				{Key: "capacity", Label: "Capacity", Kind: dialog.NumberField},
				{Key: "fee", Label: "Fee", Kind: dialog.NumberField},
				{Key: "published", Label: "Published", Kind: dialog.BoolField},
				{Key: "description", Label: "Description", Kind: dialog.TextAreaField},
			},
			Summary: []string{"id", "name", "place", "startDate"},
		},
		Jobs: []Job{
			{ID: "contests-export", Label: "Export contests to spreadsheet", Path: "/api/contests/export"},
		},
	}
}

func members() Resource {
	return Resource{
		ID:    "members",
		Title: "Members",
		Grid: grid.Config{
			TableID:  "members",
			Title:    "members",
			Resource: "/api/members",
			Columns: []grid.Column{
				{Key: "id", Title: "ID", Width: 60, Kind: grid.Number, Sortable: true},
				{Key: "name", Title: "Name", Width: 180, Sortable: true},
				{Key: "email", Title: "Email", Width: 220, Sortable: true},
				{Key: "prefecture", Title: "Prefecture", Width: 100, Sortable: true},
				{Key: "grade", Title: "Grade", Width: 70, Sortable: true},
				{Key: "joinedAt", Title: "Joined", Width: 110, Kind: grid.Date, Sortable: true},
				{Key: "isActive", Title: "Active", Width: 60, Kind: grid.Bool},
			},
			Filters: []grid.Filter{
				{Key: "prefecture", Label: "Prefecture", Facet: "prefectures"},
				{Key: "grade", Label: "Grade", Facet: "grades"},
				{Key: "isActive", Label: "Active", Kind: grid.BoolFilter},
			},
			DefaultSort: "id",
		},
		Dialog: dialog.Config{
			Noun:     "member",
			Resource: "/api/members",
			Fields: []dialog.Field{
				{Key: "name", Label: "Name", Required: true},
				{Key: "email", Label: "Email", Required: true},
				{Key: "prefecture", Label: "Prefecture", Kind: dialog.SelectField, Facet: "prefectures"},
				{Key: "grade", Label: "Grade", Kind: dialog.SelectField, Facet: "grades"},
				{Key: "joinedAt", Label: "Joined", Kind: dialog.DateField},
				{Key: "isActive", Label: "Active", Kind: dialog.BoolField, Default: "true"},
				{Key: "note", Label: "Note", Kind: dialog.TextAreaField},
			},
			Summary: []string{"id", "name", "email"},
		},
		Jobs: []Job{
			{ID: "members-import", Label: "Import members from spreadsheet", Path: "/api/members/import", Refresh: true},
		},
	}
}

func orders() Resource {
	return Resource{
		ID:    "orders",
		Title: "Orders",
		Grid: grid.Config{
			TableID:  "orders",
			Title:    "orders",
			Resource: "/api/orders",
			Columns: []grid.Column{
				{Key: "id", Title: "ID", Width: 60, Kind: grid.Number, Sortable: true},
				{Key: "orderNumber", Title: "Order", Width: 110, Sortable: true},
				{Key: "customerName", Title: "Customer", Width: 180, Sortable: true},
				{Key: "product", Title: "Product", Width: 180, Sortable: true},
				{Key: "quantity", Title: "Qty", Width: 50, Kind: grid.Number, Sortable: true},
				{Key: "total", Title: "Total", Width: 90, Kind: grid.Money, Sortable: true},
				{Key: "status", Title: "Status", Width: 100, Sortable: true},
				{Key: "orderedAt", Title: "Ordered", Width: 140, Kind: grid.DateTime, Sortable: true},
				{Key: "shipped", Title: "Shipped", Width: 70, Kind: grid.Bool},
			},
			Filters: []grid.Filter{
				{Key: "status", Label: "Status", Facet: "statuses"},
				{Key: "product", Label: "Product", Facet: "products"},
				{Key: "startDate", Label: "From", Kind: grid.TextFilter},
				{Key: "endDate", Label: "To", Kind: grid.TextFilter},
				{Key: "shipped", Label: "Shipped", Kind: grid.BoolFilter},
			},
			DateRange:   &grid.DateRange{StartKey: "startDate", EndKey: "endDate"},
			DefaultSort: "orderedAt",
		},
		Dialog: dialog.Config{
			Noun:     "order",
			Resource: "/api/orders",
			Fields: []dialog.Field{
				{Key: "orderNumber", Label: "Order number", Required: true},
				{Key: "customerName", Label: "Customer", Required: true},
				{Key: "product", Label: "Product", Kind: dialog.SelectField, Facet: "products", Required: true},
				{Key: "quantity", Label: "Quantity", Kind: dialog.NumberField, Required: true, Default: "1"},
				{Key: "total", Label: "Total", Kind: dialog.NumberField},
				{Key: "status", Label: "Status", Kind: dialog.SelectField, Facet: "statuses"},
				{Key: "orderedAt", Label: "Ordered on", Kind: dialog.DateField},
				{Key: "shipped", Label: "Shipped", Kind: dialog.BoolField},
			},
			Summary: []string{"id", "orderNumber", "customerName", "total"},
		},
		Jobs: []Job{
			{ID: "orders-sync", Label: "Sync orders from Shopify", Path: "/api/orders/sync", Refresh: true},
			{ID: "orders-export", Label: "Export orders to spreadsheet", Path: "/api/orders/export"},
		},
	}
}

func subjects() Resource {
	return Resource{
		ID:    "subjects",
		Title: "Subjects",
		Grid: grid.Config{
			TableID:  "subjects",
			Title:    "subjects",
			Resource: "/api/subjects",
			Columns: []grid.Column{
				{Key: "id", Title: "ID", Width: 60, Kind: grid.Number, Sortable: true},
				{Key: "name", Title: "Name", Width: 200, Sortable: true},
				{Key: "category", Title: "Category", Width: 120, Sortable: true},
				{Key: "sortOrder", Title: "Order", Width: 60, Kind: grid.Number, Sortable: true},
				{Key: "deletedAt", Title: "Deleted", Width: 110, Kind: grid.Date, Sortable: true},
			},
			Filters: []grid.Filter{
				{Key: "category", Label: "Category", Facet: "categories"},
				{Key: "includeDeleted", Label: "Show deleted", Kind: grid.BoolFilter},
			},
			DefaultSort:      "sortOrder",
			DefaultDirection: grid.Asc,
		},
		Dialog: dialog.Config{
			Noun:     "subject",
			Resource: "/api/subjects",
			Fields: []dialog.Field{
				{Key: "name", Label: "Name", Required: true},
				{Key: "category", Label: "Category", Kind: dialog.SelectField, Facet: "categories", Required: true},
				{Key: "sortOrder", Label: "Order", Kind: dialog.NumberField},
				{Key: "description", Label: "Description", Kind: dialog.TextAreaField},
			},
			SoftDelete: true,
			DeletedKey: "deletedAt",
			Summary:    []string{"id", "name", "category"},
		},
	}
}

func tickets() Resource {
	return Resource{
		ID:    "tickets",
		Title: "Tickets",
		Grid: grid.Config{
			TableID:  "tickets",
			Title:    "tickets",
			Resource: "/api/tickets",
			Columns: []grid.Column{
				{Key: "id", Title: "ID", Width: 60, Kind: grid.Number, Sortable: true},
				{Key: "title", Title: "Title", Width: 260, Sortable: true},
				{Key: "status", Title: "Status", Width: 100, Sortable: true},
				{Key: "priority", Title: "Priority", Width: 80, Sortable: true},
				{Key: "assignee", Title: "Assignee", Width: 140, Sortable: true},
				{Key: "updatedAt", Title: "Updated", Width: 140, Kind: grid.DateTime, Sortable: true},
			},
			Filters: []grid.Filter{
				{Key: "status", Label: "Status", Facet: "statuses"},
				{Key: "priority", Label: "Priority", Facet: "priorities"},
			},
			DefaultSort: "updatedAt",
		},
		Dialog: dialog.Config{
			Noun:     "ticket",
			Resource: "/api/tickets",
			Fields: []dialog.Field{
				{Key: "title", Label: "Title", Required: true},
				{Key: "status", Label: "Status", Kind: dialog.SelectField, Facet: "statuses", Required: true, Default: "open"},
				{Key: "priority", Label: "Priority", Kind: dialog.SelectField, Facet: "priorities", Default: "normal"},
				{Key: "assignee", Label: "Assignee"},
				{Key: "body", Label: "Details", Kind: dialog.TextAreaField},
			},
			Summary: []string{"id", "title", "status"},
		},
	}
}

func users() Resource {
	return Resource{
		ID:    "users",
		Title: "Users",
		Grid: grid.Config{
			TableID:  "users",
			Title:    "users",
			Resource: "/api/users",
			Columns: []grid.Column{
				{Key: "id", Title: "ID", Width: 60, Kind: grid.Number, Sortable: true},
				{Key: "username", Title: "Username", Width: 160, Sortable: true},
				{Key: "email", Title: "Email", Width: 220, Sortable: true},
				{Key: "role", Title: "Role", Width: 100, Sortable: true},
				{Key: "isAdmin", Title: "Admin", Width: 60, Kind: grid.Bool},
				{Key: "lastLoginAt", Title: "Last login", Width: 140, Kind: grid.DateTime, Sortable: true},
			},
			Filters: []grid.Filter{
				{Key: "role", Label: "Role", Facet: "roles"},
				{Key: "isAdmin", Label: "Admin", Kind: grid.BoolFilter},
			},
			DefaultSort:      "username",
			DefaultDirection: grid.Asc,
		},
		Dialog: dialog.Config{
			Noun:     "user",
			Resource: "/api/users",
			Fields: []dialog.Field{
				{Key: "username", Label: "Username", Required: true},
				{Key: "email", Label: "Email", Required: true},
				{Key: "role", Label: "Role", Kind: dialog.SelectField, Facet: "roles", Required: true},
				{Key: "isAdmin", Label: "Admin", Kind: dialog.BoolField},
			},
			Summary: []string{"id", "username", "email"},
		},
	}
}

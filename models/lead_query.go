package models

import (
	"context"
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// searchColumns are matched case-insensitively by LeadFilter.Search.
var searchColumns = []string{"first_name", "last_name", "email", "company", "phone"}

// sortColumns maps the JSON field names accepted as sortBy to columns.
var sortColumns = map[string]string{
	"firstName": "first_name",
	"lastName":  "last_name",
	"email":     "email",
	"phone":     "phone",
	"company":   "company",
	"stage":     "stage",
	"status":    "status",
	"source":    "source",
	"value":     "value",
	"notes":     "notes",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// LeadFilter holds the optional list filters. Empty fields impose nothing.
// Stage, status and source are compared verbatim, so an unknown value
// simply matches no rows.
type LeadFilter struct {
	Search string
	Stage  string
	Status string
	Source string
}

// Scope returns the filter as a gorm scope.
func (f LeadFilter) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Search != "" {
			pattern := "%" + escapeLike(strings.ToLower(f.Search)) + "%"
			conds := make([]string, 0, len(searchColumns))
			args := make([]interface{}, 0, len(searchColumns))
			for _, col := range searchColumns {
				conds = append(conds, "LOWER("+col+") LIKE ? ESCAPE '\\'")
				args = append(args, pattern)
			}
			db = db.Where("("+strings.Join(conds, " OR ")+")", args...)
		}
		if f.Stage != "" {
			db = db.Where("stage = ?", f.Stage)
		}
		if f.Status != "" {
			db = db.Where("status = ?", f.Status)
		}
		if f.Source != "" {
			db = db.Where("source = ?", f.Source)
		}
		return db
	}
}

// Matches reports whether l satisfies the filter, using the same rules as Scope.
func (f LeadFilter) Matches(l Lead) bool {
	if search := strings.ToLower(f.Search); search != "" {
		hit := false
		for _, v := range []string{l.FirstName, l.LastName, l.Email, l.Company, l.Phone} {
			if strings.Contains(strings.ToLower(v), search) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if f.Stage != "" && string(l.Stage) != f.Stage {
		return false
	}
	if f.Status != "" && string(l.Status) != f.Status {
		return false
	}
	if f.Source != "" && string(l.Source) != f.Source {
		return false
	}
	return true
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// LeadSort orders a lead query. A Field outside the known lead fields falls
// back to newest-first.
type LeadSort struct {
	Field string
	Desc  bool
}

// NewLeadSort builds a LeadSort from the sortBy/sortOrder query values.
func NewLeadSort(sortBy, sortOrder string) LeadSort {
	return LeadSort{Field: sortBy, Desc: sortOrder == "desc"}
}

// Column returns the ordering column and direction actually used.
func (s LeadSort) Column() (string, bool) {
	if col, ok := sortColumns[s.Field]; ok {
		return col, s.Desc
	}
	return "created_at", true
}

// Scope applies the ordering plus an id tiebreaker so pages do not overlap.
func (s LeadSort) Scope() func(*gorm.DB) *gorm.DB {
	col, desc := s.Column()
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(clause.OrderBy{Columns: []clause.OrderByColumn{
			{Column: clause.Column{Name: col}, Desc: desc},
			{Column: clause.Column{Name: "id"}, Desc: desc},
		}})
	}
}

// PageRequest is a 1-based page of at most Limit rows.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest normalizes raw values: non-positive page becomes 1,
// non-positive limit becomes DefaultLimit, and limit is capped at MaxLimit.
// Page is capped so that Offset never overflows.
func NewPageRequest(page, limit int) PageRequest {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}
	return PageRequest{Page: page, Limit: limit}
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination is the metadata returned alongside a page of leads.
type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// PageCount is ceil(total/limit); limit is always positive after NewPageRequest.
func PageCount(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// LeadPage is one page of a filtered, ordered lead listing.
type LeadPage struct {
	Leads      []Lead
	Pagination Pagination
}

// FindLeads counts the filtered set, then fetches the requested page.
// The two reads are separate statements; rows written in between can make
// Total disagree with the page contents.
func FindLeads(ctx context.Context, db *gorm.DB, f LeadFilter, s LeadSort, p PageRequest) (*LeadPage, error) {
	var total int64
	if err := db.WithContext(ctx).Model(&Lead{}).Scopes(f.Scope()).Count(&total).Error; err != nil {
		return nil, err
	}

	leads := make([]Lead, 0, p.Limit)
	if err := db.WithContext(ctx).
		Scopes(f.Scope(), s.Scope()).
		Offset(p.Offset()).
		Limit(p.Limit).
		Find(&leads).Error; err != nil {
		return nil, err
	}
	if leads == nil {
		leads = []Lead{}
	}

	return &LeadPage{
		Leads: leads,
		Pagination: Pagination{
			Total: total,
			Page:  p.Page,
			Limit: p.Limit,
			Pages: PageCount(total, p.Limit),
		},
	}, nil
}

// EachLead walks every lead matching f in order s, one page of batchSize
// rows at a time, calling fn for each.
func EachLead(ctx context.Context, db *gorm.DB, f LeadFilter, s LeadSort, batchSize int, fn func(Lead) error) error {
	if batchSize < 1 {
		batchSize = MaxLimit
	}
	for offset := 0; ; offset += batchSize {
		var batch []Lead
		if err := db.WithContext(ctx).
			Scopes(f.Scope(), s.Scope()).
			Offset(offset).
			Limit(batchSize).
			Find(&batch).Error; err != nil {
			return err
		}
		for _, l := range batch {
			if err := fn(l); err != nil {
				return err
			}
		}
		if len(batch) < batchSize {
			return nil
		}
	}
}

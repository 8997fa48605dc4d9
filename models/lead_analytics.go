package models

import (
	"context"
	"math"

	"gorm.io/gorm"
)

// GroupCount is one bucket of a group-by; the JSON shape matches what the
// dashboard already consumes.
type GroupCount struct {
	ID    string `json:"_id"`
	Count int64  `json:"count"`
}

// LeadAnalytics summarizes the whole lead store.
type LeadAnalytics struct {
	TotalLeads     int64        `json:"totalLeads"`
	ConvertedLeads int64        `json:"convertedLeads"`
	ActiveLeads    int64        `json:"activeLeads"`
	LostLeads      int64        `json:"lostLeads"`
	InactiveLeads  int64        `json:"inactiveLeads"`
	ConversionRate float64      `json:"conversionRate"`
	LeadsByStage   []GroupCount `json:"leadsByStage"`
	LeadsBySource  []GroupCount `json:"leadsBySource"`
}

// ConversionRate is converted/total as a percentage rounded to two places,
// or 0 for an empty store.
func ConversionRate(converted, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(converted)/float64(total)*100*100) / 100
}

// ComputeLeadAnalytics runs one count per status and one group-by per
// dimension. The passes are independent reads, so concurrent writes can make
// the buckets momentarily disagree with TotalLeads.
func ComputeLeadAnalytics(ctx context.Context, db *gorm.DB) (*LeadAnalytics, error) {
	db = db.WithContext(ctx)
	a := &LeadAnalytics{}

	if err := db.Model(&Lead{}).Count(&a.TotalLeads).Error; err != nil {
		return nil, err
	}

	counters := []struct {
		status Status
		dst    *int64
	}{
		{StatusConverted, &a.ConvertedLeads},
		{StatusActive, &a.ActiveLeads},
		{StatusLost, &a.LostLeads},
		{StatusInactive, &a.InactiveLeads},
	}
	for _, c := range counters {
		if err := db.Model(&Lead{}).Where("status = ?", c.status).Count(c.dst).Error; err != nil {
			return nil, err
		}
	}

	var err error
	if a.LeadsByStage, err = groupCount(db, "stage"); err != nil {
		return nil, err
	}
	if a.LeadsBySource, err = groupCount(db, "source"); err != nil {
		return nil, err
	}

	a.ConversionRate = ConversionRate(a.ConvertedLeads, a.TotalLeads)
	return a, nil
}

// groupCount counts leads per distinct value of column. column is always one
// of the fixed enum columns, never request input.
func groupCount(db *gorm.DB, column string) ([]GroupCount, error) {
	rows := make([]GroupCount, 0)
	err := db.Model(&Lead{}).
		Select(column + " AS id, COUNT(*) AS count").
		Group(column).
		Order(column).
		Scan(&rows).Error
	return rows, err
}

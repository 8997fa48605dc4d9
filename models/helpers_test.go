package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, MigrateLeads(db))
	return db
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// fixtureLeads covers every stage, status and source with distinct values
// and creation times one hour apart, oldest first.
func fixtureLeads() []Lead {
	return []Lead{
		{FirstName: "John", LastName: "Smith", Email: "john@acme.com", Phone: "+15550001", Company: "Acme Corp", Stage: StageLead, Status: StatusActive, Source: SourceWebsite, Value: 1000},
		{FirstName: "Jane", LastName: "Doe", Email: "jane@techflow.io", Phone: "+15550002", Company: "TechFlow Inc", Stage: StageProspect, Status: StatusConverted, Source: SourceEmail, Value: 5000},
		{FirstName: "Maria", LastName: "Garcia", Email: "maria@horizon.tech", Phone: "+15550003", Company: "Horizon Tech", Stage: StageQualified, Status: StatusLost, Source: SourcePhone, Value: 250},
		{FirstName: "David", LastName: "Acmeson", Email: "david@example.com", Phone: "+15550004", Company: "", Stage: StageNegotiation, Status: StatusInactive, Source: SourceSocialMedia, Value: 7500},
		{FirstName: "Sarah", LastName: "Lee", Email: "sarah@apex.dev", Phone: "+15550005", Company: "Apex Digital", Stage: StageClosed, Status: StatusConverted, Source: SourceReferral, Value: 12000},
		{FirstName: "Linda", LastName: "White", Email: "linda@acme.com", Phone: "+15550006", Company: "ACME Subsidiary", Stage: StageLead, Status: StatusActive, Source: SourceWebsite, Value: 3000},
		{FirstName: "Mark", LastName: "Lopez", Email: "mark@100percent.biz", Phone: "+15550007", Company: "100% Growth_Co", Stage: StageProspect, Status: StatusActive, Source: SourceEmail, Value: 0},
	}
}

func seedLeads(t *testing.T, db *gorm.DB, leads []Lead) []Lead {
	t.Helper()
	for i := range leads {
		leads[i].CreatedAt = baseTime.Add(time.Duration(i) * time.Hour)
		leads[i].UpdatedAt = leads[i].CreatedAt
		require.NoError(t, db.Create(&leads[i]).Error)
	}
	return leads
}

package models

import "gorm.io/gorm"

// MigrateLeads creates or updates the leads table and its indexes.
func MigrateLeads(db *gorm.DB) error {
	return db.AutoMigrate(&Lead{})
}

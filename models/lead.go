package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrLeadNotFound is returned when no lead carries the requested id
	ErrLeadNotFound = errors.New("lead not found")

	// ErrInvalidLead is returned when a lead fails field or enum validation
	ErrInvalidLead = errors.New("invalid lead")
)

// Lead is a sales prospect tracked through the pipeline stages.
// Deletes are permanent, so there is no gorm.DeletedAt column.
type Lead struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	FirstName string    `gorm:"not null" json:"firstName"`
	LastName  string    `gorm:"not null" json:"lastName"`
	Email     string    `gorm:"not null" json:"email"`
	Phone     string    `gorm:"not null" json:"phone"`
	Company   string    `gorm:"not null;default:''" json:"company"`
	Stage     Stage     `gorm:"type:varchar(32);not null;default:'Lead';index" json:"stage"`
	Status    Status    `gorm:"type:varchar(32);not null;default:'Active';index" json:"status"`
	Source    Source    `gorm:"type:varchar(32);not null;default:'Website';index" json:"source"`
	Value     float64   `gorm:"not null;default:0" json:"value"`
	Notes     string    `gorm:"type:text;not null;default:''" json:"notes"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeSave is the store boundary check; gorm runs it on create and update.
// New records get their identifier and enum defaults here.
func (l *Lead) BeforeSave(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
		l.ApplyDefaults()
	}
	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
	return l.Validate()
}

// ApplyDefaults sets the documented defaults for zero-valued enum fields.
func (l *Lead) ApplyDefaults() {
	if l.Stage == "" {
		l.Stage = StageLead
	}
	if l.Status == "" {
		l.Status = StatusActive
	}
	if l.Source == "" {
		l.Source = SourceWebsite
	}
}

// Validate checks required fields and enum membership.
func (l *Lead) Validate() error {
	var missing []string
	if strings.TrimSpace(l.FirstName) == "" {
		missing = append(missing, "firstName")
	}
	if strings.TrimSpace(l.LastName) == "" {
		missing = append(missing, "lastName")
	}
	if strings.TrimSpace(l.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(l.Phone) == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrInvalidLead, strings.Join(missing, ", "))
	}
	if !l.Stage.Valid() {
		return fmt.Errorf("%w: stage %q is not allowed", ErrInvalidLead, l.Stage)
	}
	if !l.Status.Valid() {
		return fmt.Errorf("%w: status %q is not allowed", ErrInvalidLead, l.Status)
	}
	if !l.Source.Valid() {
		return fmt.Errorf("%w: source %q is not allowed", ErrInvalidLead, l.Source)
	}
	return nil
}

// UpdateLead writes every field of l back to its existing row. Unlike
// gorm's Save it never inserts, so a lead deleted concurrently stays deleted
// and ErrLeadNotFound is returned.
func UpdateLead(ctx context.Context, db *gorm.DB, l *Lead) error {
	result := db.WithContext(ctx).Model(l).Select("*").Omit("id", "created_at").Updates(l)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrLeadNotFound
	}
	return nil
}

// LeadPatch is a partial update. A non-nil field was present in the request
// and is applied even when it holds a zero value.
type LeadPatch struct {
	FirstName *string  `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string  `json:"lastName" validate:"omitempty,max=100"`
	Email     *string  `json:"email" validate:"omitempty,email"`
	Phone     *string  `json:"phone" validate:"omitempty,max=40"`
	Company   *string  `json:"company" validate:"omitempty,max=200"`
	Stage     *Stage   `json:"stage"`
	Status    *Status  `json:"status"`
	Source    *Source  `json:"source"`
	Value     *float64 `json:"value"`
	Notes     *string  `json:"notes"`
}

// Apply copies every present field onto l.
func (p LeadPatch) Apply(l *Lead) {
	if p.FirstName != nil {
		l.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		l.LastName = *p.LastName
	}
	if p.Email != nil {
		l.Email = *p.Email
	}
	if p.Phone != nil {
		l.Phone = *p.Phone
	}
	if p.Company != nil {
		l.Company = *p.Company
	}
	if p.Stage != nil {
		l.Stage = *p.Stage
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.Source != nil {
		l.Source = *p.Source
	}
	if p.Value != nil {
		l.Value = *p.Value
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
}

package models

import (
	"encoding/json"
	"fmt"
)

// Stage is the pipeline position of a lead.
type Stage string

const (
	StageLead        Stage = "Lead"
	StageProspect    Stage = "Prospect"
	StageQualified   Stage = "Qualified"
	StageNegotiation Stage = "Negotiation"
	StageClosed      Stage = "Closed"
)

// Status is the lifecycle disposition of a lead, orthogonal to its stage.
type Status string

const (
	StatusActive    Status = "Active"
	StatusInactive  Status = "Inactive"
	StatusConverted Status = "Converted"
	StatusLost      Status = "Lost"
)

// Source is the channel a lead was acquired through.
type Source string

const (
	SourceWebsite     Source = "Website"
	SourceEmail       Source = "Email"
	SourcePhone       Source = "Phone"
	SourceSocialMedia Source = "Social Media"
	SourceReferral    Source = "Referral"
)

var (
	Stages   = []Stage{StageLead, StageProspect, StageQualified, StageNegotiation, StageClosed}
	Statuses = []Status{StatusActive, StatusInactive, StatusConverted, StatusLost}
	Sources  = []Source{SourceWebsite, SourceEmail, SourcePhone, SourceSocialMedia, SourceReferral}
)

func (s Stage) Valid() bool  { return contains(Stages, s) }
func (s Status) Valid() bool { return contains(Statuses, s) }
func (s Source) Valid() bool { return contains(Sources, s) }

// ParseStage returns the Stage named by v or an ErrInvalidLead error.
func ParseStage(v string) (Stage, error) {
	s := Stage(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: stage %q is not one of %v", ErrInvalidLead, v, Stages)
	}
	return s, nil
}

// ParseStatus returns the Status named by v or an ErrInvalidLead error.
func ParseStatus(v string) (Status, error) {
	s := Status(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: status %q is not one of %v", ErrInvalidLead, v, Statuses)
	}
	return s, nil
}

// ParseSource returns the Source named by v or an ErrInvalidLead error.
func ParseSource(v string) (Source, error) {
	s := Source(v)
	if !s.Valid() {
		return "", fmt.Errorf("%w: source %q is not one of %v", ErrInvalidLead, v, Sources)
	}
	return s, nil
}

// An empty JSON string decodes to the zero value so that defaults apply on create.

func (s *Stage) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, ParseStage)
}

func (s *Status) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, ParseStatus)
}

func (s *Source) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, ParseSource)
}

func unmarshalEnum[T ~string](data []byte, dst *T, parse func(string) (T, error)) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLead, err)
	}
	if raw == "" {
		*dst = ""
		return nil
	}
	v, err := parse(raw)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

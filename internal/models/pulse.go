/**
 * @description
 * Pulse database model.
 * Maps to the 'pulses' table in PostgreSQL. One row per UTC calendar date.
 *
 * @dependencies
 * - gorm.io/gorm
 * - gorm.io/datatypes: JSON column for the headline list
 * - github.com/google/uuid
 */

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DateLayout is the wire and key format of a pulse date.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusGood Status = "Good"
	StatusBad  Status = "Bad"
)

// ParseStatus normalises a model-provided status. ok is false for anything
// other than good/bad in any casing.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "good":
		return StatusGood, true
	case "bad":
		return StatusBad, true
	default:
		return "", false
	}
}

// HeadlineSource is the publisher of a headline
type HeadlineSource struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Headline is the provider-neutral shape of one news item
type Headline struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	URL         string         `json:"url"`
	Source      HeadlineSource `json:"source"`
}

// Pulse is the daily verdict for a calendar date
type Pulse struct {
	ID          uuid.UUID                     `gorm:"type:uuid;primaryKey" json:"id"`
	Date        time.Time                     `gorm:"column:date;type:date;uniqueIndex;not null" json:"date"`
	Status      Status                        `gorm:"column:status;type:varchar(8);not null" json:"status"`
	Score       *float64                      `gorm:"column:score" json:"score"`
	Headlines   datatypes.JSONType[[]Headline] `gorm:"column:headlines" json:"headlines"`
	Rationale   string                        `gorm:"column:rationale;type:text" json:"rationale"`
	MarketIndex *float64                      `gorm:"column:sp500" json:"sp500"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName overrides the table name used by Pulse to `pulses`
func (Pulse) TableName() string {
	return "pulses"
}

// BeforeCreate ensures UUID is generated if not present
func (p *Pulse) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// HeadlineList returns the stored headlines in provider order
func (p *Pulse) HeadlineList() []Headline {
	return p.Headlines.Data()
}

// PulseSummary is the compact projection used by the history endpoint
type PulseSummary struct {
	Date        time.Time `json:"date"`
	Status      Status    `json:"status"`
	Score       *float64  `json:"score"`
	MarketIndex *float64  `gorm:"column:sp500" json:"sp500"`
}

// TruncateDay drops the time of day, returning UTC midnight of t's UTC date.
// This is the storage and lookup key of a pulse.
func TruncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD key (a full RFC3339 timestamp is also accepted and truncated).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return TruncateDay(t), nil
}

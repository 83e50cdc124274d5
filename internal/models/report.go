package models

import "time"

// ReportTargetType identifies what kind of entity a report is about.
type ReportTargetType string

const (
	ReportTargetUser    ReportTargetType = "user"
	ReportTargetPost    ReportTargetType = "post"
	ReportTargetComment ReportTargetType = "comment"
)

// Valid reports whether t is a known report target type.
func (t ReportTargetType) Valid() bool {
	switch t {
	case ReportTargetUser, ReportTargetPost, ReportTargetComment:
		return true
	}
	return false
}

// ReportType classifies the severity/category of a report.
type ReportType string

const (
	ReportTypeSpam       ReportType = "spam"
	ReportTypeHarassment ReportType = "harassment"
	ReportTypeNSFW       ReportType = "nsfw"
	ReportTypeViolence   ReportType = "violence"
	ReportTypeOther      ReportType = "other"
)

// Valid reports whether t is a known report type.
func (t ReportType) Valid() bool {
	switch t {
	case ReportTypeSpam, ReportTypeHarassment, ReportTypeNSFW, ReportTypeViolence, ReportTypeOther:
		return true
	}
	return false
}

// ReportStatus is the triage state of a report.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusResolved  ReportStatus = "resolved"
	ReportStatusDismissed ReportStatus = "dismissed"
)

// Valid reports whether s is a known report status.
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusPending, ReportStatusResolved, ReportStatusDismissed:
		return true
	}
	return false
}

// Report is a moderation report filed against a user, post or comment.
// Any authenticated identity may file one; only moderators and admins may
// list or transition them.
type Report struct {
	ID         uint             `gorm:"primaryKey" json:"id"`
	ReporterID uint             `gorm:"not null;index" json:"reporter_id"`
	Reporter   User             `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	TargetType ReportTargetType `gorm:"type:varchar(10);not null" json:"target_type"`
	TargetID   uint             `gorm:"not null;index" json:"target_id"`
	Type       ReportType       `gorm:"type:varchar(20);not null" json:"type"`
	Reason     string           `json:"reason"`
	Status     ReportStatus     `gorm:"type:varchar(12);default:'pending'" json:"status"`
	ReviewedBy *uint            `json:"reviewed_by,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

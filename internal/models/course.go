package models

import (
	"time"

	"gorm.io/gorm"
)

// Course is a protected content item. Module is the content tag matched
// against a member's enrollment type; an empty module means the course is
// open to every active member.
type Course struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:255;not null" json:"title"`
	Slug        string         `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	Module      string         `gorm:"size:50;index" json:"module"` // "" | general-training | academic
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Course) TableName() string {
	return "courses"
}

// MembershipCourse is an optional explicit allowlist row. When any rows
// exist for a membership type, they replace module-tag matching for that
// type entirely.
type MembershipCourse struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	MembershipType string `gorm:"size:20;not null;index" json:"membership_type"`
	CourseID       uint   `gorm:"not null;index" json:"course_id"`
}

func (MembershipCourse) TableName() string {
	return "membership_courses"
}

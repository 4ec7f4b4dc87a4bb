package repository

import (
	"coursepass/internal/domain"
	"coursepass/internal/models"

	"gorm.io/gorm"
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) GetByID(id uint) (*models.Course, error) {
	var c models.Course
	err := r.db.First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListAll returns every course (admins and "both" members).
func (r *CourseRepository) ListAll() ([]models.Course, error) {
	var out []models.Course
	err := r.db.Order("title").Find(&out).Error
	return out, err
}

// ListForEnrollment returns courses visible to the given enrollment type:
// the matching module tag plus untagged courses.
func (r *CourseRepository) ListForEnrollment(enrollmentType string) ([]models.Course, error) {
	if enrollmentType == domain.EnrollmentBoth {
		return r.ListAll()
	}
	slug := domain.ModuleSlugMap[enrollmentType]
	var out []models.Course
	err := r.db.Where("module = ? OR module = ''", slug).Order("title").Find(&out).Error
	return out, err
}

// Allowlist returns explicitly configured course ids for a membership type.
// An empty result means no allowlist is configured and module matching
// applies instead.
func (r *CourseRepository) Allowlist(membershipType string) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.MembershipCourse{}).
		Where("membership_type = ?", membershipType).
		Pluck("course_id", &ids).Error
	return ids, err
}

package handler

import (
	"net/http"
	"strconv"

	"coursepass/internal/domain"
	"coursepass/internal/middleware"
	"coursepass/internal/models"
	"coursepass/internal/service"

	"github.com/gin-gonic/gin"
)

// CourseLister is the listing surface the course handler needs.
type CourseLister interface {
	GetByID(id uint) (*models.Course, error)
	ListAll() ([]models.Course, error)
	ListForEnrollment(enrollmentType string) ([]models.Course, error)
}

type CourseHandler struct {
	courses   CourseLister
	memberSvc *service.MembershipService
	users     UserGetter
}

func NewCourseHandler(courses CourseLister, memberSvc *service.MembershipService, users UserGetter) *CourseHandler {
	return &CourseHandler{courses: courses, memberSvc: memberSvc, users: users}
}

// List returns the courses the signed-in user's membership covers. Admins
// see everything; a user without an active membership sees nothing.
func (h *CourseHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if u, err := h.users.GetByID(userID); err == nil && u.IsAdmin() {
		list, err := h.courses.ListAll()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load courses"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"courses": list})
		return
	}
	m, err := h.memberSvc.Membership(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load courses"})
		return
	}
	if m == nil || !h.memberSvc.HasActiveMembership(userID) {
		c.JSON(http.StatusOK, gin.H{"courses": []models.Course{}})
		return
	}
	list, err := h.courses.ListForEnrollment(m.EnrollmentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load courses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": list})
}

// Get returns a single course, gated on membership access. A denied course
// reads as 404 so outsiders cannot probe the catalog.
func (h *CourseHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}
	if !h.memberSvc.HasCourseAccess(middleware.GetUserID(c), uint(id)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	course, err := h.courses.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"course": course})
}

// Plans lists the fixed purchase options in display order.
func Plans(c *gin.Context) {
	plans := make([]domain.PricingPlan, 0, len(domain.PlanOrder))
	for _, key := range domain.PlanOrder {
		plans = append(plans, domain.PricingPlans[key])
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

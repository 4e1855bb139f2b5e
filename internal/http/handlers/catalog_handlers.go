package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mishael-2584/odel-portal/domain"
)

// CatalogHandlers serves the cached LMS catalog. Reads degrade gracefully:
// when the LMS is unreachable the response is an empty payload with HTTP
// 200, not an error page, so the portal stays browsable. The cause is
// logged server-side.
type CatalogHandlers struct {
	catalogSvc domain.CatalogService
	log        zerolog.Logger
}

// NewCatalogHandlers creates new catalog handlers
func NewCatalogHandlers(catalogSvc domain.CatalogService, log zerolog.Logger) *CatalogHandlers {
	return &CatalogHandlers{catalogSvc: catalogSvc, log: log}
}

// ListCourses handles GET /api/courses?categoryid=&search=&offset=&limit=
func (h *CatalogHandlers) ListCourses(c *gin.Context) {
	opts := domain.CourseListOptions{
		CategoryID: intQuery(c, "categoryid", 0),
		Search:     c.Query("search"),
		Offset:     intQuery(c, "offset", 0),
		Limit:      intQuery(c, "limit", 0),
	}

	courses, total, err := h.catalogSvc.ListCourses(c.Request.Context(), opts)
	if err != nil {
		h.log.Error().Err(err).Msg("course listing degraded to empty")
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"courses": []domain.Course{}, "total": 0}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"courses": courses, "total": total}})
}

// GetCourse handles GET /api/courses/:id
func (h *CatalogHandlers) GetCourse(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course id"})
		return
	}

	course, err := h.catalogSvc.GetCourse(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int("course_id", id).Msg("course lookup degraded to empty")
		c.JSON(http.StatusOK, gin.H{"data": nil})
		return
	}
	if course == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Course not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": course})
}

// CourseEnrollment handles GET /api/courses/:id/enrollment
func (h *CatalogHandlers) CourseEnrollment(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course id"})
		return
	}

	stats, err := h.catalogSvc.CourseEnrollment(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int("course_id", id).Msg("enrollment stats degraded to empty")
		c.JSON(http.StatusOK, gin.H{"data": domain.CourseEnrollmentStats{CourseID: id}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// MyCourseRoles handles GET /api/courses/:id/roles for the logged-in student
func (h *CatalogHandlers) MyCourseRoles(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course id"})
		return
	}
	claims, exists := c.Get("student_claims")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session claims not found"})
		return
	}
	student := claims.(*domain.StudentClaims)

	roles, err := h.catalogSvc.UserRoles(c.Request.Context(), id, student.MoodleUserID)
	if err != nil {
		h.log.Error().Err(err).Int("course_id", id).Msg("role lookup degraded to empty")
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"roles": []string{}}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"roles": roles}})
}

// ListCategories handles GET /api/categories
func (h *CatalogHandlers) ListCategories(c *gin.Context) {
	cats, err := h.catalogSvc.ListCategories(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("category listing degraded to empty")
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"categories": []domain.Category{}}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"categories": cats}})
}

// CategoryTree handles GET /api/categories/tree
func (h *CatalogHandlers) CategoryTree(c *gin.Context) {
	tree, err := h.catalogSvc.CategoryTree(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("category tree degraded to empty")
		tree = domain.CategoryTree{}
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"tree": tree}})
}

// CategoryPath handles GET /api/categories/:id/path
func (h *CatalogHandlers) CategoryPath(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category id"})
		return
	}

	path, err := h.catalogSvc.CategoryPath(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int("category_id", id).Msg("category path degraded to empty")
		path = []domain.PathSegment{}
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"path": path}})
}

// CategoryStats handles GET /api/categories/:id/stats
func (h *CatalogHandlers) CategoryStats(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category id"})
		return
	}

	stats, err := h.catalogSvc.CategoryStatistics(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int("category_id", id).Msg("category stats degraded to empty")
		c.JSON(http.StatusOK, gin.H{"data": domain.CategoryStats{CategoryID: id}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// CourseStats handles GET /api/stats/courses
func (h *CatalogHandlers) CourseStats(c *gin.Context) {
	stats, err := h.catalogSvc.CourseStatistics(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("course stats degraded to empty")
		c.JSON(http.StatusOK, gin.H{"data": domain.CourseStats{
			CoursesByCategory: map[int]int{},
			RecentCourses:     []domain.Course{},
		}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// MyCourses handles GET /api/me/courses for the logged-in student
func (h *CatalogHandlers) MyCourses(c *gin.Context) {
	claims, exists := c.Get("student_claims")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session claims not found"})
		return
	}
	student := claims.(*domain.StudentClaims)

	courses, err := h.catalogSvc.UserCourses(c.Request.Context(), student.MoodleUserID)
	if err != nil {
		h.log.Error().Err(err).Int("user_id", student.MoodleUserID).Msg("user courses degraded to empty")
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"courses": []domain.Course{}}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"courses": courses}})
}

// ClearCache handles POST /api/admin/cache/clear
func (h *CatalogHandlers) ClearCache(c *gin.Context) {
	h.catalogSvc.ClearCache(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"message": "Cache cleared"}})
}

func intQuery(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

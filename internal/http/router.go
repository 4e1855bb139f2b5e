package httpx

import (
	"github.com/gin-gonic/gin"

	"github.com/Mishael-2584/odel-portal/internal/http/handlers"
	"github.com/Mishael-2584/odel-portal/internal/http/middleware"
)

// BuildRouter wires the portal API routes. Catalog reads are public; the
// student dashboard endpoints require a student session; admin endpoints
// require an admin session plus a casbin policy match.
func BuildRouter(ah *handlers.AuthHandlers, ch *handlers.CatalogHandlers, authmw *middleware.AuthMW, cb *middleware.CasbinMW) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/magic-code", ah.RequestMagicCode)
	auth.POST("/verify", ah.Verify)

	student := api.Group("/", authmw.StudentAuth())
	student.GET("/auth/me", ah.Me)
	student.POST("/auth/logout", ah.Logout)
	student.GET("/me/courses", ch.MyCourses)
	student.GET("/courses/:id/roles", ch.MyCourseRoles)

	api.GET("/courses", ch.ListCourses)
	api.GET("/courses/:id", ch.GetCourse)
	api.GET("/courses/:id/enrollment", ch.CourseEnrollment)
	api.GET("/categories", ch.ListCategories)
	api.GET("/category-tree", ch.CategoryTree)
	api.GET("/categories/:id/path", ch.CategoryPath)
	api.GET("/categories/:id/stats", ch.CategoryStats)
	api.GET("/stats/courses", ch.CourseStats)

	api.POST("/admin/login", ah.AdminLogin)

	adm := api.Group("/admin", authmw.AdminAuth(), cb.Enforce())
	adm.POST("/logout", ah.AdminLogout)
	adm.POST("/cache/clear", ch.ClearCache)

	return r
}

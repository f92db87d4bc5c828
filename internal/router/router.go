package router

import (
	"github.com/gin-gonic/gin"

	"github.com/uniportal/registrar-api/internal/handler"
	"github.com/uniportal/registrar-api/internal/middleware"
	"github.com/uniportal/registrar-api/internal/models"
	"github.com/uniportal/registrar-api/internal/service"
)

// Handlers collects the handler set mounted under the API prefix.
type Handlers struct {
	Auth       *handler.AuthHandler
	Catalog    *handler.CatalogHandler
	Sections   *handler.SectionHandler
	Enrollment *handler.EnrollmentHandler
	Grades     *handler.GradeHandler
	Directory  *handler.DirectoryHandler
}

// Register mounts the API routes. Admin owns catalog and section writes,
// registration and the grade ledger; teachers grade their sections; students
// act only on themselves through /students/me.
func Register(r *gin.Engine, prefix string, auth *service.AuthService, h Handlers) {
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(auth))

	authed.GET("/auth/me", h.Auth.Me)
	authed.POST("/auth/change-password", h.Auth.ChangePassword)

	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher, models.RoleStudent)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)
	studentOnly := middleware.RequireRoles(models.RoleStudent)

	catalog := authed.Group("", anyRole)
	{
		catalog.GET("/departments", h.Catalog.ListDepartments)
		catalog.GET("/courses", h.Catalog.ListCourses)
		catalog.GET("/courses/:courseId", h.Catalog.GetCourse)
		catalog.GET("/classrooms", h.Catalog.ListClassrooms)
		catalog.GET("/classrooms/:building/rooms", h.Catalog.RoomsForBuilding)
		catalog.GET("/time-slots", h.Catalog.ListTimeSlots)
		catalog.GET("/sections", h.Sections.List)
		catalog.GET("/sections/:courseId/:secId/:year/:semester", h.Sections.Get)
	}

	admin := authed.Group("", adminOnly)
	{
		admin.POST("/courses", h.Catalog.CreateCourse)
		admin.PUT("/courses/:courseId", h.Catalog.UpdateCourse)
		admin.DELETE("/courses/:courseId", h.Catalog.DeleteCourse)

		admin.POST("/sections", h.Sections.Create)
		admin.PUT("/sections/:courseId/:secId/:year/:semester", h.Sections.Update)
		admin.DELETE("/sections/:courseId/:secId/:year/:semester", h.Sections.Delete)

		admin.GET("/grades", h.Grades.List)
		admin.DELETE("/grades/:id", h.Grades.Delete)

		admin.POST("/register/student", h.Directory.RegisterStudent)
		admin.POST("/register/teacher", h.Directory.RegisterTeacher)
		admin.GET("/users/max-id", h.Directory.NextUserID)
		admin.GET("/teachers/:teacherId", h.Directory.GetTeacher)
	}

	teaching := authed.Group("", staff)
	{
		teaching.GET("/sections/:courseId/:secId/:year/:semester/roster", h.Sections.Roster)
		teaching.GET("/teachers/course-grades/:courseId/:secId/:year/:semester", h.Grades.Roster)
		teaching.POST("/teachers/grades", h.Grades.Post)
		teaching.PUT("/teachers/grades/:studentId/:courseId/:secId/:year/:semester", h.Grades.Update)
		teaching.GET("/students/:studentId", h.Directory.GetStudent)
	}

	students := authed.Group("/students", studentOnly)
	{
		students.POST("/enroll", h.Enrollment.Enroll)
		students.GET("/me/enrollments", h.Enrollment.List)
		students.DELETE("/me/enrollments/:courseId/:secId/:year/:semester", h.Enrollment.Drop)
		students.GET("/me/schedule", h.Enrollment.Schedule)
		students.GET("/me/grades", h.Grades.MyGrades)
		students.GET("/me/gpa", h.Grades.MyGPA)
		students.GET("/me/transcript", h.Grades.MyTranscript)
	}
}

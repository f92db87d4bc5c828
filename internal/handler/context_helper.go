package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/uniportal/registrar-api/internal/middleware"
	"github.com/uniportal/registrar-api/internal/models"
	appErrors "github.com/uniportal/registrar-api/pkg/errors"
)

// currentClaims fetches the authenticated claims from the gin context.
func currentClaims(c *gin.Context) (*models.JWTClaims, error) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

// currentStudentID returns the student identity of the caller. Student
// accounts always carry one; anything else is a token issued before the
// identity existed.
func currentStudentID(c *gin.Context) (string, error) {
	claims, err := currentClaims(c)
	if err != nil {
		return "", err
	}
	if claims.Role != models.RoleStudent || claims.SubjectID == "" {
		return "", appErrors.Clone(appErrors.ErrForbidden, "student identity required")
	}
	return claims.SubjectID, nil
}

// sectionKeyFromPath parses the four path segments identifying a section.
func sectionKeyFromPath(c *gin.Context) (models.SectionKey, error) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		return models.SectionKey{}, appErrors.Clone(appErrors.ErrValidation, "year must be an integer")
	}
	return models.SectionKey{
		CourseID: c.Param("courseId"),
		SecID:    c.Param("secId"),
		Semester: c.Param("semester"),
		Year:     year,
	}, nil
}

// pageParams reads the page/page_size query pair.
func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, size
}

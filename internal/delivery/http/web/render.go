package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func (h *handlerImpl) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if user, ok := currentUser(c); ok {
		data["user"] = user
	}
	if flashes := takeFlashes(c); len(flashes) > 0 {
		data["flashes"] = flashes
	}
	c.HTML(status, name, data)
}

func (h *handlerImpl) renderNotFound(c *gin.Context) {
	h.render(c, http.StatusNotFound, "not_found.html", nil)
	c.Abort()
}

func (h *handlerImpl) renderServerError(c *gin.Context, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["error"] = "Something went wrong. Please try again."
	h.render(c, http.StatusInternalServerError, name, data)
	c.Abort()
}

// formErrors maps a binding failure to per-field messages so the form
// re-renders with the error next to the offending input.
func formErrors(err error) map[string]string {
	fieldErrors := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		fieldErrors["form"] = "Invalid form submission."
		return fieldErrors
	}

	for _, fieldError := range validationErrors {
		switch fieldError.Tag() {
		case "required":
			fieldErrors[fieldError.Field()] = "This field is required."
		case "email":
			fieldErrors[fieldError.Field()] = "Enter a valid email address."
		case "min":
			fieldErrors[fieldError.Field()] = "This value is too short."
		case "max":
			fieldErrors[fieldError.Field()] = "This value is too long."
		default:
			fieldErrors[fieldError.Field()] = "This value is invalid."
		}
	}
	return fieldErrors
}

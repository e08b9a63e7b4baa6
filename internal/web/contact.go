package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ybj/termfolio/internal/contact"
)

const (
	msgContactSuccess    = "Thank you for your message! I'll get back to you soon."
	msgContactFailed     = "Sorry, there was an error sending your message. Please try again later."
	msgContactNotReady   = "The contact form is not accepting messages right now. Please reach out through the links above."
	msgContactInvalidAll = "Please fill in all fields with a valid email address."
)

// bindForm binds, trims and validates a contact form. Trimming happens
// before validation so whitespace-only fields are rejected.
func bindForm(c *gin.Context, b binding.Binding) (contact.Form, map[string]string, error) {
	var form contact.Form
	if err := c.ShouldBindWith(&form, b); err != nil {
		return form, fieldErrors(err), err
	}
	form.Normalize()
	if err := binding.Validator.ValidateStruct(&form); err != nil {
		return form, fieldErrors(err), err
	}
	return form, nil, nil
}

// fieldErrors turns validator failures into a field -> reason map.
func fieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out[name] = "is required"
		case "email":
			out[name] = "must be a valid email address"
		case "max":
			out[name] = fmt.Sprintf("must be at most %s characters", fe.Param())
		default:
			out[name] = "is invalid"
		}
	}
	return out
}

// Contact form fragment
func (s *Server) handleContactForm(c *gin.Context) {
	c.HTML(http.StatusOK, "contact.html", gin.H{
		"ready": s.contact.Configured(),
	})
}

// Contact form submission (HTMX). Every outcome is a 200 fragment so HTMX swaps it.
func (s *Server) handleContactSubmit(c *gin.Context) {
	form, fields, err := bindForm(c, binding.Form)
	if err != nil {
		s.logger.Debug("Rejected contact form", zap.Error(err))
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"message": msgContactInvalidAll,
			"fields":  fields,
		})
		return
	}

	sub, err := s.contact.Submit(c.Request.Context(), form)
	switch {
	case errors.Is(err, contact.ErrNotConfigured):
		c.HTML(http.StatusOK, "contact-error.html", gin.H{"message": msgContactNotReady})
	case err != nil:
		if !errors.Is(err, contact.ErrDelivery) {
			s.logger.Error("Error saving contact submission", zap.Error(err))
		}
		c.HTML(http.StatusOK, "contact-error.html", gin.H{"message": msgContactFailed})
	default:
		c.HTML(http.StatusOK, "contact-success.html", gin.H{
			"message": msgContactSuccess,
			"id":      sub.ID,
		})
	}
}

// JSON contact submission.
func (s *Server) handleContactAPI(c *gin.Context) {
	form, fields, err := bindForm(c, binding.JSON)
	if err != nil {
		body := gin.H{"error": "invalid contact form"}
		if fields != nil {
			body["fields"] = fields
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	sub, err := s.contact.Submit(c.Request.Context(), form)
	switch {
	case errors.Is(err, contact.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "id": sub.ID})
	case errors.Is(err, contact.ErrDelivery):
		c.JSON(http.StatusBadGateway, gin.H{"error": "delivery failed", "id": sub.ID, "status": sub.Status})
	case err != nil:
		s.logger.Error("Error saving contact submission", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	default:
		c.JSON(http.StatusCreated, gin.H{"id": sub.ID, "status": sub.Status})
	}
}

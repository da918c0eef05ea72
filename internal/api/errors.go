package api

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/metrics"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Code     int    `json:"code"`
	SQLState string `json:"sqlState,omitempty"`
}

// Error codes.
const (
	codeInvalidRequest = "invalid_request"
	codeValidation     = "validation_error"
	codeNotFound       = "not_found"
	codeForeignKey     = "foreign_key_violation"
	codeUnique         = "unique_violation"
	codeConstraint     = "constraint_violation"
	codeInternal       = "internal_error"
)

// respondError maps err onto an HTTP status and writes an ErrorResponse.
func (s *Server) respondError(c *gin.Context, err error) {
	status := dberr.HTTPStatus(err)
	resp := ErrorResponse{
		Message:  err.Error(),
		Code:     status,
		SQLState: dberr.SQLState(err),
	}

	switch {
	case dberr.IsValidation(err):
		resp.Error = codeValidation
	case dberr.IsNotFound(err):
		resp.Error = codeNotFound
	case dberr.IsForeignKeyViolation(err):
		resp.Error = codeForeignKey
	case dberr.IsUniqueViolation(err):
		resp.Error = codeUnique
	case resp.SQLState != "":
		resp.Error = codeConstraint
	default:
		resp.Error = codeInternal
		resp.Message = "internal error"
		s.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	if resp.SQLState != "" {
		metrics.ConstraintViolations.WithLabelValues(resp.SQLState).Inc()
	}
	c.AbortWithStatusJSON(status, resp)
}

// badRequest writes a 400 for payloads that could not be bound or validated.
func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Error:   codeInvalidRequest,
		Message: err.Error(),
		Code:    http.StatusBadRequest,
	})
}

var alphaUnderscore = regexp.MustCompile(`^[A-Za-z_]+$`)

// newValidator returns the validator used for query filters.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("alpha_underscore", func(fl validator.FieldLevel) bool {
		return alphaUnderscore.MatchString(fl.Field().String())
	})
	return v
}

// bindQuery binds query parameters into dst and validates its validate tags.
func (s *Server) bindQuery(c *gin.Context, dst any) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		badRequest(c, err)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}

// bindJSON binds the request body into dst, applying binding tags.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, err)
		return false
	}
	return true
}

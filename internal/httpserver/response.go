package httpserver

import (
	"errors"
	"net/http"

	"commerce-engine/internal/domain"
	"github.com/gin-gonic/gin"
)

// envelope is the uniform response shape of the API, success and error
// alike.
type envelope struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

func respond(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < http.StatusBadRequest,
	})
}

// respondErr maps the domain error taxonomy onto HTTP statuses. Unknown
// errors become an opaque 500; their detail stays in the server log.
func respondErr(c *gin.Context, err error) {
	var (
		validationErr  *domain.ValidationError
		conflictErr    *domain.ConflictError
		stateErr       *domain.StateError
		computationErr *domain.ComputationError
	)
	switch {
	case errors.As(err, &validationErr):
		respond(c, http.StatusBadRequest, nil, validationErr.Msg)
	case errors.As(err, &conflictErr):
		var data interface{}
		if len(conflictErr.Conflicts) > 0 {
			data = gin.H{"code": conflictErr.Code, "conflicts": conflictErr.Conflicts}
		} else {
			data = gin.H{"code": conflictErr.Code}
		}
		respond(c, http.StatusConflict, data, conflictErr.Error())
	case errors.As(err, &stateErr):
		// Errors carrying a custom message name only one state; the
		// from/to pair is meaningful just for transition rejections.
		var data interface{}
		if stateErr.Msg == "" {
			data = gin.H{"from": stateErr.From, "to": stateErr.To}
		}
		respond(c, http.StatusConflict, data, stateErr.Error())
	case errors.As(err, &computationErr):
		respond(c, http.StatusUnprocessableEntity, nil, computationErr.Msg)
	case errors.Is(err, domain.ErrNotFound):
		respond(c, http.StatusNotFound, nil, err.Error())
	default:
		respond(c, http.StatusInternalServerError, nil, "internal server error")
	}
}

func badRequest(c *gin.Context, message string) {
	respond(c, http.StatusBadRequest, nil, message)
}

package response

import (
	"errors"
	"log/slog"
	"net/http"

	"anoa.com/akademika/internal/entity"
	"anoa.com/akademika/internal/policy"
	"anoa.com/akademika/pkg/apperror"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxToken  = "session_token"
)

// SetActor stores the authenticated caller on the gin context.
func SetActor(c *gin.Context, actor policy.Actor, token string) {
	c.Set(ctxUserID, actor.UserID.String())
	c.Set(ctxRole, string(actor.Role))
	c.Set(ctxToken, token)
}

// GetActor retrieves the authenticated caller from the context
func GetActor(c *gin.Context) (policy.Actor, error) {
	userIDStr, exists := c.Get(ctxUserID)
	if !exists {
		return policy.Actor{}, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		return policy.Actor{}, apperror.ErrUnauthorized
	}

	role := entity.Role(c.GetString(ctxRole))
	if !role.Valid() {
		return policy.Actor{}, apperror.ErrUnauthorized
	}

	return policy.Actor{UserID: userID, Role: role}, nil
}

// OptionalActor returns the caller when a session was resolved, nil for anonymous requests.
func OptionalActor(c *gin.Context) *policy.Actor {
	actor, err := GetActor(c)
	if err != nil {
		return nil
	}
	return &actor
}

// SessionToken returns the raw token the request authenticated with.
func SessionToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}

// Error writes the standardized error response.
func Error(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)
	body := gin.H{
		"error": err.Error(),
		"code":  apperror.Code(err),
	}

	var valErr *apperror.ValidationError
	if errors.As(err, &valErr) {
		body["fields"] = valErr.Fields
	}

	// Log internal errors, hide detail outside debug mode
	if code == http.StatusInternalServerError {
		slog.Error("internal error",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		if gin.Mode() != gin.DebugMode {
			body["error"] = apperror.ErrInternal.Error()
		}
	}

	c.AbortWithStatusJSON(code, body)
}

// BadRequest responds with a 400 for malformed bodies or parameters.
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error": message,
		"code":  "BAD_REQUEST",
	})
}

// ParamUUID parses a uuid path parameter, writing a 400 when it is malformed.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		BadRequest(c, "invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}

package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-portal/pkg/errors"
	"github.com/jwalitptl/clinic-portal/pkg/httputil"
)

const dayLayout = "2006-01-02"

// Routes are the route groups handlers register on. Public needs no
// session, Protected needs one, Admin needs an admin session. Catalog is
// public too, and its GET responses may be cached by browsers and CDNs.
type Routes struct {
	Public    *gin.RouterGroup
	Catalog   *gin.RouterGroup
	Protected *gin.RouterGroup
	Admin     *gin.RouterGroup
}

// Registrar is implemented by every handler package.
type Registrar interface {
	RegisterRoutes(Routes)
}

// ParamUUID parses a path parameter. On failure it writes a 400 and
// returns false.
func ParamUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

// BindJSON decodes the request body. On failure it writes a 400 and
// returns false.
func BindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid request body", err))
		return false
	}
	return true
}

// QueryDay parses a YYYY-MM-DD query parameter, defaulting to def.
func QueryDay(c *gin.Context, name string, def time.Time) (time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return def, true
	}
	t, err := time.Parse(dayLayout, v)
	if err != nil {
		httputil.RespondWithError(c, errors.BadRequest("invalid "+name+", expected YYYY-MM-DD", err))
		return time.Time{}, false
	}
	return t, true
}

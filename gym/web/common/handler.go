package common

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"wolfgym.com/wolfgym/core"
)

// Handler is the shared base every endpoint embeds: the database pool plus
// whatever collaborators a handler group needs on top.
type Handler struct {
	Dm *core.DatabaseManager
}

// DB returns a gorm handle bound to the request context.
func (h *Handler) DB(c *gin.Context) *gorm.DB {
	return h.Dm.DB(c.Request.Context())
}

package server

import (
	"strings"

	"github.com/gin-gonic/gin"
)

func pathID(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}

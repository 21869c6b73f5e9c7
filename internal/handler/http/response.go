package http

import "github.com/gin-gonic/gin"

// ErrorResponse writes {ok:false, mensaje}.
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"ok": false, "mensaje": message})
}

// SuccessResponse writes data with ok:true added.
func SuccessResponse(c *gin.Context, code int, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["ok"] = true
	c.JSON(code, data)
}

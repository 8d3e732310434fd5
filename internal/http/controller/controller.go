package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Controller handles general HTTP requests.
type Controller struct{}

// New creates a new Controller.
func New() *Controller {
	return &Controller{}
}

// Ping handles the HTTP GET request for health check endpoint.
func (con *Controller) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

// Root answers the API base path and doubles as a liveness check.
func (con *Controller) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "main test",
	})
}

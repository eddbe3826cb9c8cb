package httpapi

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// serverStart anchors the uptime reported by the health endpoints.
var serverStart = time.Now()

func healthBase() gin.H {
	return gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(serverStart).Seconds(),
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthBase())
}

func (s *Server) healthDetailed(c *gin.Context) {
	if err := s.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "ERROR",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"error":     err.Error(),
			"database":  "Disconnected",
		})
		return
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	body := healthBase()
	body["database"] = "Connected"
	body["platform"] = runtime.GOOS
	body["goVersion"] = runtime.Version()
	body["memory"] = gin.H{
		"alloc":      mem.Alloc,
		"totalAlloc": mem.TotalAlloc,
		"sys":        mem.Sys,
		"numGC":      mem.NumGC,
	}
	c.JSON(http.StatusOK, body)
}

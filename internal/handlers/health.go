package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/coaching-plans-api/internal/database"
	"gorm.io/gorm"
)

// HealthHandler reports liveness and database reachability.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check always answers 200 while the process is up. The database field
// reports whether the store answered a ping.
func (h *HealthHandler) Check(c *gin.Context) {
	dbStatus := "ok"
	if h.db == nil {
		dbStatus = "unconfigured"
	} else if err := database.Ping(h.db); err != nil {
		dbStatus = "unreachable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"message":   "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"database":  dbStatus,
	})
}

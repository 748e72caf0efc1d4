package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dhlee-dev/portfolio-api/internal/common"
	"github.com/dhlee-dev/portfolio-api/internal/config"
	"github.com/dhlee-dev/portfolio-api/internal/httpapi/handlers"
	"github.com/dhlee-dev/portfolio-api/internal/httpapi/middleware"
	"github.com/dhlee-dev/portfolio-api/internal/store/rabbitmq"
	"github.com/dhlee-dev/portfolio-api/internal/store/redisstore"
)

func NewRouter(db *gorm.DB, cfg config.Config, rds *redisstore.Store, events *rabbitmq.Publisher) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.Use(middleware.RequestID())

	h := handlers.NewHandler(db, cfg, rds, events)

	r.GET("/ping", h.Ping)

	// home page content
	r.GET("/portfolio", h.GetPortfolio)

	// chat widget; the session cookie carries the quota identity
	chatGroup := r.Group("/chat")
	chatGroup.Use(middleware.VisitorSession(cfg.SessionSecret))
	chatGroup.POST("/send", h.SendMessage)
	chatGroup.GET("/history", h.ChatHistory)

	return r
}

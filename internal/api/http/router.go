package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

// RouterConfig holds the settings NewRouter needs
type RouterConfig struct {
	AllowedOrigins []string
}

// NewRouter builds the gin engine with middleware and all routes registered
func NewRouter(cfg RouterConfig, images *ImageHandler, health *HealthHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	images.RegisterRoutes(r)
	health.RegisterRoutes(r)

	return r
}

func corsConfig(origins []string) cors.Config {
	allowAll := len(origins) == 0 || lo.Contains(origins, "*")

	return cors.Config{
		AllowAllOrigins: allowAll,
		AllowOrigins:    lo.Ternary(allowAll, []string(nil), origins),
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", requestIDHeader},
		ExposeHeaders:   []string{requestIDHeader},
		MaxAge:          12 * time.Hour,
	}
}

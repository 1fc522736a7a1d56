package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"storybook-server/internal/models"
)

// RouterOptions - настройки gin, не относящиеся к маршрутам API.
type RouterOptions struct {
	AllowedOrigins []string // пусто = любые
	// Metrics включает gin метрики на /metrics. Регистрирует коллекторы глобально, поэтому только один раз на процесс.
	Metrics bool
}

// NewRouter собирает gin.Engine: логирование, recovery, CORS, метрики, /health и маршруты h.
func NewRouter(h *ChapterHandler, opts RouterOptions, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(GinZapLogger(logger.Named("http")))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(opts.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = opts.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// middleware метрик должен стоять до регистрации маршрутов
	if opts.Metrics {
		p := ginprometheus.NewPrometheus("storybook")
		// шаблон маршрута вместо пути, иначе id историй раздувают кардинальность
		p.ReqCntURLLabelMappingFn = func(c *gin.Context) string { return c.FullPath() }
		p.Use(router)
	}

	health := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", health)
	router.HEAD("/health", health)

	h.RegisterRoutes(router)

	router.NoMethod(func(c *gin.Context) {
		writeError(c, http.StatusMethodNotAllowed, models.ErrCodeMethodNotAllowed, "Method not allowed")
	})
	router.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, models.ErrCodeNotFound, "Not found")
	})
	return router
}

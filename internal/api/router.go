package api

import (
	"sync"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/chirp/docs"
	"github.com/d60-Lab/chirp/internal/api/handler"
	"github.com/d60-Lab/chirp/internal/api/middleware"
	"github.com/d60-Lab/chirp/pkg/storage"
)

const pushPath = "/api/v1/push"

type RouterOptions struct {
	Handler *handler.Handler
	Auth    *middleware.Auth
	Limiter *middleware.RateLimiter
	// Sentry 为 true 时挂载 sentrygin（需先 sentry.Init）
	Sentry bool
	// TracingService 非空时挂载 otelgin
	TracingService string
}

var registerOnce sync.Once

// RegisterValidators 注册自定义校验规则：filetype 要求 "type/subtype"
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("filetype", func(fl validator.FieldLevel) bool {
				_, ok := storage.FileSuffix(fl.Field().String())
				return ok
			})
		}
	})
}

func NewRouter(opts RouterOptions) *gin.Engine {
	RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())
	if opts.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if opts.TracingService != "" {
		r.Use(otelgin.Middleware(opts.TracingService))
	}
	// websocket 握手不能被压缩
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{pushPath})))

	h := opts.Handler
	r.GET("/health", h.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	limit := func(c *gin.Context) { c.Next() }
	if opts.Limiter != nil {
		limit = opts.Limiter.Middleware()
	}

	v1 := r.Group("/api/v1")
	{
		public := v1.Group("", opts.Auth.Optional())
		public.GET("/tweets/feed", h.InfiniteFeed)
		public.GET("/tweets/:id", h.GetTweet)
		public.GET("/profiles", h.InfiniteProfiles)
		public.GET("/profiles/:id", h.GetProfile)
		public.GET("/profiles/:id/tweets", h.InfiniteProfileFeed)
		public.GET("/profiles/:id/followers", h.GetFollowers)
		public.GET("/profiles/:id/follows", h.GetFollows)
		public.GET("/push", h.Push)

		private := v1.Group("", opts.Auth.Required(), limit)
		private.POST("/tweets", h.CreateTweet)
		private.POST("/tweets/:id/like", h.ToggleLike)
		private.POST("/tweets/:id/retweet", h.ToggleRetweet)
		private.POST("/tweets/:id/comments", h.CreateComment)
		private.POST("/profiles/:id/follow", h.ToggleFollow)
		private.GET("/notifications", h.ListNotifications)
		private.DELETE("/notifications/:id", h.DeleteNotification)
		private.POST("/uploads/presign", h.PresignUpload)
	}
	return r
}

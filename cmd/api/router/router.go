package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"sitecms/cmd/api/auth"
	"sitecms/cmd/api/handlers"
	"sitecms/cmd/api/metrics"
	mw "sitecms/cmd/api/middleware"
	"sitecms/cmd/api/services"
	"sitecms/config"
	_ "sitecms/docs"
	"sitecms/repositories"
)

// Pinger reports store health for /health.
type Pinger func(ctx context.Context) error

// Deps are the collaborators the routes are built from.
type Deps struct {
	Tokens   mw.TokenParser
	Services Services
	Recorder metrics.Recorder
	// Metrics serves /metrics when set.
	Metrics http.Handler
	Ping    Pinger
}

// Services groups the application services behind the handlers.
type Services struct {
	Posts    *services.PostService
	Import   *services.ImportService
	Taxonomy *services.TaxonomyService
	Comments *services.CommentService
	Pages    *services.PageService
	Events   *services.EventService
	Chatbot  *services.ChatbotService
	Users    *services.UserService
	SEO      *services.SEOService
	AI       *services.AIService
}

// NewServices wires every service on one store.
func NewServices(cfg config.AppConfig, store repositories.Store, posts *services.PostService, fetcher services.FeedFetcher, rec metrics.Recorder) Services {
	return Services{
		Posts:    posts,
		Import:   services.NewImportService(posts, fetcher),
		Taxonomy: services.NewTaxonomyService(store),
		Comments: services.NewCommentService(store),
		Pages:    services.NewPageService(store),
		Events:   services.NewEventService(store),
		Chatbot:  services.NewChatbotService(store),
		Users:    services.NewUserService(store),
		SEO:      services.NewSEOService(store, cfg, rec),
		AI:       services.NewAIService(store, cfg.Site, rec),
	}
}

// New builds the gin engine and wraps it with CORS.
func New(cfg config.AppConfig, deps Deps) (http.Handler, error) {
	policies, err := mw.CachePoliciesFrom(cfg.Cache)
	if err != nil {
		return nil, err
	}
	rec := deps.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	cache := mw.NewHTTPCache(policies, rec)
	svc := deps.Services

	r := gin.New()
	r.Use(mw.RequestTrace(rec), gin.Recovery())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "store": "down"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Crawler and machine-readable documents live outside /api/v1.
	optional := mw.OptionalAuth(deps.Tokens)
	root := r.Group("", optional)
	{
		root.GET("/sitemap.xml", cache.Handle(mw.ClassSitemap), handlers.SitemapHandler(svc.SEO))
		root.GET("/sitemaps/:page", cache.Handle(mw.ClassSitemap), handlers.SitemapPageHandler(svc.SEO))
		root.GET("/sitemap-images.xml", cache.Handle(mw.ClassSitemap), handlers.ImageSitemapHandler(svc.SEO))
		root.GET("/sitemap-news.xml", cache.Handle(mw.ClassSitemap), handlers.NewsSitemapHandler(svc.SEO))
		root.GET("/robots.txt", cache.Handle(mw.ClassSEO), handlers.RobotsHandler(svc.SEO))
		root.GET("/feed.xml", cache.Handle(mw.ClassFeed), handlers.FeedHandler(svc.SEO, services.FeedRSS))
		root.GET("/feed.atom", cache.Handle(mw.ClassFeed), handlers.FeedHandler(svc.SEO, services.FeedAtom))
		root.GET("/feed.json", cache.Handle(mw.ClassFeed), handlers.FeedHandler(svc.SEO, services.FeedJSON))
		root.GET("/feed/category/:slug", cache.Handle(mw.ClassFeed), handlers.CategoryFeedHandler(svc.SEO))
		root.GET("/schema/:slug", cache.Handle(mw.ClassSEO), handlers.SchemaHandler(svc.SEO))
		root.GET("/meta/:slug", cache.Handle(mw.ClassSEO), handlers.MetaHandler(svc.SEO))

		ai := root.Group("/ai", cache.Handle(mw.ClassAI))
		ai.GET("/posts/:slug/markdown", handlers.PostMarkdownHandler(svc.AI))
		ai.GET("/posts/:slug/metadata", handlers.PostMetadataHandler(svc.AI))
		ai.GET("/posts/:slug/analysis", handlers.PostAnalysisHandler(svc.AI))
		ai.GET("/llms.txt", handlers.LLMsTxtHandler(svc.AI))
		ai.GET("/content-index", handlers.ContentIndexHandler(svc.AI))
	}

	commentLimit := mw.RateLimit(mw.NewKeyedLimiter(cfg.RateLimit.CommentsRPS, cfg.RateLimit.CommentsBurst))
	engageLimit := mw.RateLimit(mw.NewKeyedLimiter(cfg.RateLimit.EngagementRPS, cfg.RateLimit.EngagementBurst))

	// v1 routes
	api := r.Group("/api/v1", optional)
	{
		api.GET("/posts", cache.Handle(mw.ClassPostList), handlers.ListPostsHandler(svc.Posts))
		api.GET("/posts/:slug", cache.Handle(mw.ClassPostDetail), handlers.GetPostHandler(svc.Posts))
		api.GET("/posts/:slug/related", cache.Handle(mw.ClassPostList), handlers.RelatedPostsHandler(svc.Posts))
		api.POST("/posts/:slug/view", engageLimit, handlers.EngagePostHandler(svc.Posts, repositories.FieldViews))
		api.POST("/posts/:slug/like", engageLimit, handlers.EngagePostHandler(svc.Posts, repositories.FieldLikes))
		api.POST("/posts/:slug/share", engageLimit, handlers.EngagePostHandler(svc.Posts, repositories.FieldShares))
		api.GET("/posts/:slug/comments", cache.Handle(mw.ClassNoCache), handlers.ListCommentsHandler(svc.Comments))
		api.POST("/posts/:slug/comments", commentLimit, handlers.CreateCommentHandler(svc.Comments))

		api.GET("/categories", cache.Handle(mw.ClassTaxonomy), handlers.ListCategoriesHandler(svc.Taxonomy))
		api.GET("/categories/:slug", cache.Handle(mw.ClassTaxonomy), handlers.GetCategoryHandler(svc.Taxonomy))
		api.GET("/tags", cache.Handle(mw.ClassTaxonomy), handlers.ListTagsHandler(svc.Taxonomy))
		api.GET("/tags/:slug", cache.Handle(mw.ClassTaxonomy), handlers.GetTagHandler(svc.Taxonomy))

		api.GET("/pages/:slug", cache.Handle(mw.ClassPage), handlers.GetPageHandler(svc.Pages))
		api.GET("/events", cache.Handle(mw.ClassPage), handlers.ListEventsHandler(svc.Events))
		api.GET("/events/:slug", cache.Handle(mw.ClassPage), handlers.GetEventHandler(svc.Events))
		api.GET("/chatbot/config", cache.Handle(mw.ClassPage), handlers.GetChatbotConfigHandler(svc.Chatbot))
		api.GET("/authors/:id", cache.Handle(mw.ClassPage), handlers.GetAuthorHandler(svc.Users))
	}

	admin := r.Group("/api/v1/admin", mw.RequireAuth(deps.Tokens), cache.Handle(mw.ClassPrivate))
	{
		perm := mw.RequirePermission
		admin.GET("/posts", perm(auth.PermReadDrafts), handlers.AdminListPostsHandler(svc.Posts))
		admin.GET("/posts/:id", perm(auth.PermReadDrafts), handlers.AdminGetPostHandler(svc.Posts))
		admin.POST("/posts", perm(auth.PermWritePosts), handlers.CreatePostHandler(svc.Posts))
		admin.PUT("/posts/:id", perm(auth.PermWritePosts), handlers.UpdatePostHandler(svc.Posts))
		admin.DELETE("/posts/:id", perm(auth.PermDeletePosts), handlers.DeletePostHandler(svc.Posts))
		admin.POST("/posts/:id/publish", perm(auth.PermPublishPosts), handlers.PublishPostHandler(svc.Posts))
		admin.POST("/posts/:id/unpublish", perm(auth.PermPublishPosts), handlers.UnpublishPostHandler(svc.Posts))
		admin.POST("/posts/:id/archive", perm(auth.PermPublishPosts), handlers.ArchivePostHandler(svc.Posts))
		admin.POST("/posts/:id/ai-optimize", perm(auth.PermWritePosts), handlers.OptimizePostHandler(svc.Posts))
		admin.POST("/import/feed", perm(auth.PermImport), handlers.ImportFeedHandler(svc.Import))

		admin.POST("/categories", perm(auth.PermWriteTaxonomy), handlers.CreateCategoryHandler(svc.Taxonomy))
		admin.PUT("/categories/:id", perm(auth.PermWriteTaxonomy), handlers.UpdateCategoryHandler(svc.Taxonomy))
		admin.DELETE("/categories/:id", perm(auth.PermWriteTaxonomy), handlers.DeleteCategoryHandler(svc.Taxonomy))
		admin.POST("/tags", perm(auth.PermWriteTaxonomy), handlers.CreateTagHandler(svc.Taxonomy))
		admin.PUT("/tags/:id", perm(auth.PermWriteTaxonomy), handlers.UpdateTagHandler(svc.Taxonomy))
		admin.DELETE("/tags/:id", perm(auth.PermWriteTaxonomy), handlers.DeleteTagHandler(svc.Taxonomy))

		admin.GET("/comments", perm(auth.PermModerateComments), handlers.AdminListCommentsHandler(svc.Comments))
		admin.PATCH("/comments/:id", perm(auth.PermModerateComments), handlers.ModerateCommentHandler(svc.Comments))
		admin.DELETE("/comments/:id", perm(auth.PermModerateComments), handlers.DeleteCommentHandler(svc.Comments))

		admin.GET("/pages", perm(auth.PermWritePages), handlers.AdminListPagesHandler(svc.Pages))
		admin.PUT("/pages/:slug", perm(auth.PermWritePages), handlers.UpsertPageHandler(svc.Pages))
		admin.DELETE("/pages/:slug", perm(auth.PermWritePages), handlers.DeletePageHandler(svc.Pages))

		admin.GET("/events", perm(auth.PermWriteEvents), handlers.AdminListEventsHandler(svc.Events))
		admin.POST("/events", perm(auth.PermWriteEvents), handlers.CreateEventHandler(svc.Events))
		admin.PUT("/events/:id", perm(auth.PermWriteEvents), handlers.UpdateEventHandler(svc.Events))
		admin.DELETE("/events/:id", perm(auth.PermWriteEvents), handlers.DeleteEventHandler(svc.Events))

		admin.GET("/chatbot", perm(auth.PermWriteSettings), handlers.AdminGetChatbotConfigHandler(svc.Chatbot))
		admin.PUT("/chatbot", perm(auth.PermWriteSettings), handlers.UpdateChatbotConfigHandler(svc.Chatbot))

		admin.PUT("/profile", handlers.UpdateProfileHandler(svc.Users))
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "If-None-Match", "If-Modified-Since", "X-Request-ID"},
		ExposedHeaders:   []string{"ETag", "Last-Modified", "Warning", "X-Request-ID"},
		AllowCredentials: true,
	})
	return c.Handler(r), nil
}

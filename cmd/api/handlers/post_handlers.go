package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"sitecms/cmd/api/dto"
	"sitecms/cmd/api/middleware"
	"sitecms/cmd/api/services"
	"sitecms/repositories"
)

// ListPostsHandler godoc
// @Summary      List posts
// @Description  Published posts with filters and pagination. Callers holding posts:read_drafts may filter by status.
// @Tags         posts
// @Param        page      query  int     false  "Page number (1-based)"
// @Param        limit     query  int     false  "Page size (<=100)"
// @Param        category  query  string  false  "Category slug"
// @Param        tag       query  string  false  "Tag slug"
// @Param        search    query  string  false  "Search in title, excerpt and keywords"
// @Param        featured  query  bool    false  "Featured only"
// @Param        sort      query  string  false  "newest | oldest | popular | title"
// @Param        status    query  string  false  "draft | published | archived"
// @Produce      json
// @Success      200  {object}  dto.PostListResponseDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Router       /posts [get]
func ListPostsHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.List(c.Request.Context(), services.ListPostsInput{
			Page:          queryInt(c, "page", 1),
			Limit:         queryInt(c, "limit", repositories.DefaultPageSize),
			Category:      c.Query("category"),
			Tag:           c.Query("tag"),
			Search:        c.Query("search"),
			Featured:      queryBool(c, "featured"),
			Sort:          c.Query("sort"),
			Status:        c.Query("status"),
			CanReadDrafts: canReadDrafts(c),
		})
		if err != nil {
			respondError(c, err)
			return
		}
		list(c, page)
	}
}

// GetPostHandler godoc
// @Summary      Get post by slug
// @Tags         posts
// @Param        slug  path  string  true  "Post slug"
// @Produce      json
// @Success      200  {object}  dto.PostResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /posts/{slug} [get]
func GetPostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := svc.GetBySlug(c.Request.Context(), c.Param("slug"), canReadDrafts(c))
		if err != nil {
			respondError(c, err)
			return
		}
		middleware.SetLastModified(c, post.UpdatedAt)
		ok(c, post)
	}
}

// RelatedPostsHandler godoc
// @Summary      Related posts
// @Description  Published posts sharing tags, then category, with the given post.
// @Tags         posts
// @Param        slug   path   string  true   "Post slug"
// @Param        limit  query  int     false  "Max results (<=10)"
// @Produce      json
// @Success      200  {object}  dto.PostListResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /posts/{slug}/related [get]
func RelatedPostsHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		posts, err := svc.Related(c.Request.Context(), c.Param("slug"), queryInt(c, "limit", 0))
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, posts)
	}
}

// EngagePostHandler godoc
// @Summary      Increment a post counter
// @Description  Atomically increments views, likes or shares of a published post.
// @Tags         posts
// @Param        slug  path  string  true  "Post slug"
// @Produce      json
// @Success      200  {object}  object{success=bool,data=dto.EngagementDTO}
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Failure      429  {object}  dto.ErrorResponseDTO
// @Router       /posts/{slug}/view [post]
func EngagePostHandler(svc *services.PostService, field repositories.AnalyticsField) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := svc.Engage(c.Request.Context(), c.Param("slug"), field)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, out)
	}
}

// AdminListPostsHandler godoc
// @Summary      List posts (admin)
// @Description  모든 상태의 글을 조회한다. status 로 필터링할 수 있다.
// @Tags         admin
// @Security     BearerAuth
// @Param        page    query  int     false  "Page number (1-based)"
// @Param        limit   query  int     false  "Page size (<=100)"
// @Param        status  query  string  false  "draft | published | archived"
// @Param        search  query  string  false  "Search"
// @Produce      json
// @Success      200  {object}  dto.PostListResponseDTO
// @Failure      401  {object}  dto.ErrorResponseDTO
// @Failure      403  {object}  dto.ErrorResponseDTO
// @Router       /admin/posts [get]
func AdminListPostsHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.List(c.Request.Context(), services.ListPostsInput{
			Page:          queryInt(c, "page", 1),
			Limit:         queryInt(c, "limit", repositories.DefaultPageSize),
			Category:      c.Query("category"),
			Tag:           c.Query("tag"),
			Search:        c.Query("search"),
			Sort:          c.Query("sort"),
			Status:        c.Query("status"),
			CanReadDrafts: true,
			AnyStatus:     true,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		list(c, page)
	}
}

// AdminGetPostHandler godoc
// @Summary      Get post by id (admin)
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "ObjectID"
// @Produce      json
// @Success      200  {object}  dto.PostResponseDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/posts/{id} [get]
func AdminGetPostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := svc.GetByID(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, post)
	}
}

// CreatePostHandler godoc
// @Summary      Create post
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.PostInputDTO  true  "post"
// @Success      201   {object}  dto.PostResponseDTO
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      409   {object}  dto.ErrorResponseDTO
// @Router       /admin/posts [post]
func CreatePostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.PostInputDTO
		if !bindJSON(c, &in) {
			return
		}
		post, err := svc.Create(c.Request.Context(), in, authorFrom(c))
		if err != nil {
			respondError(c, err)
			return
		}
		created(c, post)
	}
}

// UpdatePostHandler godoc
// @Summary      Update post
// @Description  편집 가능한 필드를 모두 교체한다. slug 는 명시한 경우에만 바뀐다.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string            true  "ObjectID"
// @Param        body  body      dto.PostInputDTO  true  "post"
// @Success      200   {object}  dto.PostResponseDTO
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Failure      409   {object}  dto.ErrorResponseDTO
// @Router       /admin/posts/{id} [put]
func UpdatePostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.PostInputDTO
		if !bindJSON(c, &in) {
			return
		}
		post, err := svc.Update(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, post)
	}
}

// DeletePostHandler godoc
// @Summary      Delete post
// @Description  글과 댓글을 삭제하고 카테고리/태그 카운터를 되돌린다.
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "ObjectID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/posts/{id} [delete]
func DeletePostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// PublishPostHandler godoc
// @Summary      Publish post
// @Description  카테고리/태그 카운터는 같은 트랜잭션에서 갱신된다.
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "ObjectID"
// @Produce      json
// @Success      200  {object}  dto.PostResponseDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/posts/{id}/publish [post]
func PublishPostHandler(svc *services.PostService) gin.HandlerFunc {
	return transitionHandler(svc.Publish)
}

// UnpublishPostHandler godoc
// @Summary      Unpublish post (back to draft)
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "ObjectID"
// @Produce      json
// @Success      200  {object}  dto.PostResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/posts/{id}/unpublish [post]
func UnpublishPostHandler(svc *services.PostService) gin.HandlerFunc {
	return transitionHandler(svc.Unpublish)
}

// ArchivePostHandler godoc
// @Summary      Archive post
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "ObjectID"
// @Produce      json
// @Success      200  {object}  dto.PostResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/posts/{id}/archive [post]
func ArchivePostHandler(svc *services.PostService) gin.HandlerFunc {
	return transitionHandler(svc.Archive)
}

func transitionHandler(do func(ctx context.Context, id string) (*dto.PostDetailDTO, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := do(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, post)
	}
}

// OptimizePostHandler godoc
// @Summary      Recompute AI optimization
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "ObjectID"
// @Produce      json
// @Success      200  {object}  object{success=bool,data=object}
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/posts/{id}/ai-optimize [post]
func OptimizePostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		opt, err := svc.OptimizeAI(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, opt)
	}
}

// ImportFeedHandler godoc
// @Summary      Import an external feed as drafts
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ImportFeedInputDTO  true  "feed"
// @Success      200   {object}  object{success=bool,data=dto.ImportResultDTO}
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Router       /admin/import/feed [post]
func ImportFeedHandler(svc *services.ImportService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.ImportFeedInputDTO
		if !bindJSON(c, &in) {
			return
		}
		res, err := svc.ImportFeed(c.Request.Context(), in, authorFrom(c))
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, res)
	}
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitecms/cmd/api/dto"
	"sitecms/cmd/api/services"
	"sitecms/repositories"
)

// ListCommentsHandler godoc
// @Summary      List approved comments
// @Description  Approved comments of a published post, threaded by parent.
// @Tags         comments
// @Param        slug  path  string  true  "Post slug"
// @Produce      json
// @Success      200  {object}  object{success=bool,data=[]dto.CommentDTO}
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /posts/{slug}/comments [get]
func ListCommentsHandler(svc *services.CommentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		comments, err := svc.ListForPost(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, err)
			return
		}
		if comments == nil {
			comments = []dto.CommentDTO{}
		}
		ok(c, comments)
	}
}

// CreateCommentHandler godoc
// @Summary      Submit a comment
// @Description  새 댓글은 pending 상태로 저장되고 승인 후 노출된다.
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        slug  path      string                true  "Post slug"
// @Param        body  body      dto.CommentInputDTO  true  "comment"
// @Success      201   {object}  object{success=bool,data=dto.CommentDTO}
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      403   {object}  dto.ErrorResponseDTO
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Failure      429   {object}  dto.ErrorResponseDTO
// @Router       /posts/{slug}/comments [post]
func CreateCommentHandler(svc *services.CommentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.CommentInputDTO
		if !bindJSON(c, &in) {
			return
		}
		meta := services.RequestMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
		comment, err := svc.Create(c.Request.Context(), c.Param("slug"), in, meta)
		if err != nil {
			respondError(c, err)
			return
		}
		created(c, comment)
	}
}

// AdminListCommentsHandler godoc
// @Summary      List comments (admin)
// @Tags         admin
// @Security     BearerAuth
// @Param        status   query  string  false  "pending | approved | rejected | spam"
// @Param        post_id  query  string  false  "Post ObjectID"
// @Param        page     query  int     false  "Page number (1-based)"
// @Param        limit    query  int     false  "Page size (<=100)"
// @Produce      json
// @Success      200  {object}  object{success=bool,data=[]object,pagination=dto.PaginationDTO}
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Router       /admin/comments [get]
func AdminListCommentsHandler(svc *services.CommentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.AdminList(c.Request.Context(),
			c.Query("status"),
			c.Query("post_id"),
			queryInt(c, "page", 1),
			queryInt(c, "limit", repositories.DefaultPageSize),
		)
		if err != nil {
			respondError(c, err)
			return
		}
		list(c, page)
	}
}

// ModerateCommentHandler godoc
// @Summary      Change comment status
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true  "ObjectID"
// @Param        body  body      dto.CommentStatusInputDTO  true  "status"
// @Success      200   {object}  object{success=bool,data=object}
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Router       /admin/comments/{id} [patch]
func ModerateCommentHandler(svc *services.CommentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.CommentStatusInputDTO
		if !bindJSON(c, &in) {
			return
		}
		comment, err := svc.Moderate(c.Request.Context(), c.Param("id"), in.Status)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, comment)
	}
}

// DeleteCommentHandler godoc
// @Summary      Delete comment
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "ObjectID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/comments/{id} [delete]
func DeleteCommentHandler(svc *services.CommentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

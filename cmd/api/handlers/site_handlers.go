package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitecms/cmd/api/auth"
	"sitecms/cmd/api/dto"
	"sitecms/cmd/api/middleware"
	"sitecms/cmd/api/services"
	"sitecms/repositories"
)

// GetPageHandler godoc
// @Summary      Get page by slug
// @Description  Site-builder page. Unpublished pages require posts:read_drafts.
// @Tags         pages
// @Param        slug  path  string  true  "Page slug"
// @Produce      json
// @Success      200  {object}  object{success=bool,data=object}
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /pages/{slug} [get]
func GetPageHandler(svc *services.PageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.Get(c.Request.Context(), c.Param("slug"), canReadDrafts(c))
		if err != nil {
			respondError(c, err)
			return
		}
		middleware.SetLastModified(c, page.UpdatedAt)
		ok(c, page)
	}
}

// AdminListPagesHandler godoc
// @Summary      List pages (admin)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  object{success=bool,data=[]object}
// @Router       /admin/pages [get]
func AdminListPagesHandler(svc *services.PageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		pages, err := svc.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, pages)
	}
}

// UpsertPageHandler godoc
// @Summary      Create or replace page
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        slug  path      string            true  "Page slug"
// @Param        body  body      dto.PageInputDTO  true  "page"
// @Success      200   {object}  object{success=bool,data=object}
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Router       /admin/pages/{slug} [put]
func UpsertPageHandler(svc *services.PageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.PageInputDTO
		if !bindJSON(c, &in) {
			return
		}
		page, err := svc.Upsert(c.Request.Context(), c.Param("slug"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, page)
	}
}

// DeletePageHandler godoc
// @Summary      Delete page
// @Tags         admin
// @Security     BearerAuth
// @Param        slug  path  string  true  "Page slug"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/pages/{slug} [delete]
func DeletePageHandler(svc *services.PageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("slug")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ListEventsHandler godoc
// @Summary      Upcoming events
// @Description  Published events that have not ended, soonest first.
// @Tags         events
// @Param        page   query  int  false  "Page number (1-based)"
// @Param        limit  query  int  false  "Page size (<=100)"
// @Produce      json
// @Success      200  {object}  object{success=bool,data=[]object,pagination=dto.PaginationDTO}
// @Router       /events [get]
func ListEventsHandler(svc *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.Upcoming(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "limit", repositories.DefaultPageSize))
		if err != nil {
			respondError(c, err)
			return
		}
		list(c, page)
	}
}

// GetEventHandler godoc
// @Summary      Get event by slug
// @Tags         events
// @Param        slug  path  string  true  "Event slug"
// @Produce      json
// @Success      200  {object}  object{success=bool,data=object}
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /events/{slug} [get]
func GetEventHandler(svc *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := svc.GetBySlug(c.Request.Context(), c.Param("slug"), canReadDrafts(c))
		if err != nil {
			respondError(c, err)
			return
		}
		middleware.SetLastModified(c, event.UpdatedAt)
		ok(c, event)
	}
}

// AdminListEventsHandler godoc
// @Summary      List events (admin)
// @Tags         admin
// @Security     BearerAuth
// @Param        status  query  string  false  "draft | published | cancelled"
// @Param        page    query  int     false  "Page number (1-based)"
// @Param        limit   query  int     false  "Page size (<=100)"
// @Produce      json
// @Success      200  {object}  object{success=bool,data=[]object,pagination=dto.PaginationDTO}
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Router       /admin/events [get]
func AdminListEventsHandler(svc *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := svc.AdminList(c.Request.Context(), c.Query("status"), queryInt(c, "page", 1), queryInt(c, "limit", repositories.DefaultPageSize))
		if err != nil {
			respondError(c, err)
			return
		}
		list(c, page)
	}
}

// CreateEventHandler godoc
// @Summary      Create event
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.EventInputDTO  true  "event"
// @Success      201   {object}  object{success=bool,data=object}
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      409   {object}  dto.ErrorResponseDTO
// @Router       /admin/events [post]
func CreateEventHandler(svc *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.EventInputDTO
		if !bindJSON(c, &in) {
			return
		}
		event, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		created(c, event)
	}
}

// UpdateEventHandler godoc
// @Summary      Update event
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "ObjectID"
// @Param        body  body      dto.EventInputDTO  true  "event"
// @Success      200   {object}  object{success=bool,data=object}
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Router       /admin/events/{id} [put]
func UpdateEventHandler(svc *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.EventInputDTO
		if !bindJSON(c, &in) {
			return
		}
		event, err := svc.Update(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, event)
	}
}

// DeleteEventHandler godoc
// @Summary      Delete event
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "ObjectID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/events/{id} [delete]
func DeleteEventHandler(svc *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// GetChatbotConfigHandler godoc
// @Summary      Public chatbot settings
// @Description  챗봇 위젯 설정. system prompt 는 노출하지 않는다.
// @Tags         chatbot
// @Produce      json
// @Success      200  {object}  object{success=bool,data=dto.ChatbotPublicDTO}
// @Router       /chatbot/config [get]
func GetChatbotConfigHandler(svc *services.ChatbotService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := svc.Public(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, cfg)
	}
}

// AdminGetChatbotConfigHandler godoc
// @Summary      Chatbot settings (admin)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  object{success=bool,data=object}
// @Router       /admin/chatbot [get]
func AdminGetChatbotConfigHandler(svc *services.ChatbotService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := svc.Get(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, cfg)
	}
}

// UpdateChatbotConfigHandler godoc
// @Summary      Update chatbot settings
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ChatbotInputDTO  true  "chatbot"
// @Success      200   {object}  object{success=bool,data=object}
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Router       /admin/chatbot [put]
func UpdateChatbotConfigHandler(svc *services.ChatbotService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.ChatbotInputDTO
		if !bindJSON(c, &in) {
			return
		}
		cfg, err := svc.Update(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, cfg)
	}
}

// GetAuthorHandler godoc
// @Summary      Author profile
// @Tags         authors
// @Param        id  path  string  true  "Author id (JWT subject)"
// @Produce      json
// @Success      200  {object}  object{success=bool,data=dto.AuthorDTO}
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /authors/{id} [get]
func GetAuthorHandler(svc *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		author, err := svc.GetAuthor(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, author)
	}
}

// UpdateProfileHandler godoc
// @Summary      Update own author profile
// @Description  토큰의 subject 로 프로필을 생성하거나 갱신한다.
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.AuthorInputDTO  true  "profile"
// @Success      200   {object}  object{success=bool,data=dto.AuthorDTO}
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      401   {object}  dto.ErrorResponseDTO
// @Router       /admin/profile [put]
func UpdateProfileHandler(svc *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.AuthorInputDTO
		if !bindJSON(c, &in) {
			return
		}
		var email string
		if claims := auth.ClaimsFrom(c); claims != nil {
			email = claims.Email
		}
		author, err := svc.UpsertProfile(c.Request.Context(), authorFrom(c), email, in)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, author)
	}
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sitecms/apperr"
	"sitecms/cmd/api/auth"
	"sitecms/cmd/api/dto"
	"sitecms/cmd/api/middleware"
	"sitecms/cmd/api/services"
	"sitecms/cmd/api/trace"
	"sitecms/cmd/internal/logger"
)

const internalErrorMessage = "internal server error"

// respondError writes the `{success:false, message, error}` body. 5xx responses hide the cause.
func respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := code.HTTPStatus()
	message := internalErrorMessage
	var ae *apperr.Error
	if status < http.StatusInternalServerError && errors.As(err, &ae) {
		message = ae.Message
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorWithFields("request failed", trace.Fields(c.Request.Context(), logger.Fields{
			"path":  c.FullPath(),
			"code":  string(code),
			"error": err.Error(),
		}))
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponseDTO{Success: false, Message: message, Error: string(code)})
}

// bindJSON binds the body and answers 400 on failure.
func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, apperr.InvalidInput("invalid request body").WithCause(err))
		return false
	}
	return true
}

func ok[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, dto.DataResponse[T]{Success: true, Data: data})
}

func created[T any](c *gin.Context, data T) {
	c.JSON(http.StatusCreated, dto.DataResponse[T]{Success: true, Data: data})
}

func list[T any](c *gin.Context, page dto.Page[T]) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	c.JSON(http.StatusOK, dto.ListResponse[T]{Success: true, Data: items, Pagination: page.Pagination})
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

func queryBool(c *gin.Context, key string) *bool {
	v, err := strconv.ParseBool(c.Query(key))
	if err != nil {
		return nil
	}
	return &v
}

func canReadDrafts(c *gin.Context) bool {
	return auth.ClaimsFrom(c).Has(auth.PermReadDrafts)
}

func authorFrom(c *gin.Context) services.Author {
	claims := auth.ClaimsFrom(c)
	if claims == nil {
		return services.Author{}
	}
	return services.Author{ID: claims.Subject, Name: claims.Name}
}

// writeDocument sends a rendered file. Stale bodies carry the Warning header the cache reads.
func writeDocument(c *gin.Context, doc *services.Document) {
	if doc.Stale {
		c.Header(middleware.HeaderWarning, `110 - "Response is Stale"`)
	}
	c.Data(http.StatusOK, doc.ContentType, doc.Body)
}

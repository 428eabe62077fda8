package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitecms/cmd/api/dto"
	"sitecms/cmd/api/services"
)

// ListCategoriesHandler godoc
// @Summary      List categories
// @Tags         taxonomy
// @Produce      json
// @Success      200  {object}  object{success=bool,data=[]object}
// @Router       /categories [get]
func ListCategoriesHandler(svc *services.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := svc.ListCategories(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, cats)
	}
}

// GetCategoryHandler godoc
// @Summary      Get category by slug
// @Tags         taxonomy
// @Param        slug  path  string  true  "Category slug"
// @Produce      json
// @Success      200  {object}  object{success=bool,data=object}
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /categories/{slug} [get]
func GetCategoryHandler(svc *services.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cat, err := svc.GetCategory(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, cat)
	}
}

// CreateCategoryHandler godoc
// @Summary      Create category
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CategoryInputDTO  true  "category"
// @Success      201   {object}  object{success=bool,data=object}
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      409   {object}  dto.ErrorResponseDTO
// @Router       /admin/categories [post]
func CreateCategoryHandler(svc *services.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.CategoryInputDTO
		if !bindJSON(c, &in) {
			return
		}
		cat, err := svc.CreateCategory(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		created(c, cat)
	}
}

// UpdateCategoryHandler godoc
// @Summary      Update category
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string                true  "ObjectID"
// @Param        body  body      dto.CategoryInputDTO  true  "category"
// @Success      200   {object}  object{success=bool,data=object}
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Router       /admin/categories/{id} [put]
func UpdateCategoryHandler(svc *services.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.CategoryInputDTO
		if !bindJSON(c, &in) {
			return
		}
		cat, err := svc.UpdateCategory(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, cat)
	}
}

// DeleteCategoryHandler godoc
// @Summary      Delete category
// @Description  글의 카테고리 참조와 하위 카테고리의 parent 를 해제한다.
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "ObjectID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/categories/{id} [delete]
func DeleteCategoryHandler(svc *services.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ListTagsHandler godoc
// @Summary      List tags
// @Tags         taxonomy
// @Produce      json
// @Success      200  {object}  object{success=bool,data=[]object}
// @Router       /tags [get]
func ListTagsHandler(svc *services.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tags, err := svc.ListTags(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, tags)
	}
}

// GetTagHandler godoc
// @Summary      Get tag by slug
// @Tags         taxonomy
// @Param        slug  path  string  true  "Tag slug"
// @Produce      json
// @Success      200  {object}  object{success=bool,data=object}
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /tags/{slug} [get]
func GetTagHandler(svc *services.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tag, err := svc.GetTag(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, tag)
	}
}

// CreateTagHandler godoc
// @Summary      Create tag
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.TagInputDTO  true  "tag"
// @Success      201   {object}  object{success=bool,data=object}
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      409   {object}  dto.ErrorResponseDTO
// @Router       /admin/tags [post]
func CreateTagHandler(svc *services.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.TagInputDTO
		if !bindJSON(c, &in) {
			return
		}
		tag, err := svc.CreateTag(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		created(c, tag)
	}
}

// UpdateTagHandler godoc
// @Summary      Update tag
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string           true  "ObjectID"
// @Param        body  body      dto.TagInputDTO  true  "tag"
// @Success      200   {object}  object{success=bool,data=object}
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Router       /admin/tags/{id} [put]
func UpdateTagHandler(svc *services.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in dto.TagInputDTO
		if !bindJSON(c, &in) {
			return
		}
		tag, err := svc.UpdateTag(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, tag)
	}
}

// DeleteTagHandler godoc
// @Summary      Delete tag
// @Tags         admin
// @Security     BearerAuth
// @Param        id  path  string  true  "ObjectID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /admin/tags/{id} [delete]
func DeleteTagHandler(svc *services.TaxonomyService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteTag(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

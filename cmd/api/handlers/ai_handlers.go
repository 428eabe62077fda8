package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitecms/cmd/api/services"
)

const contentTypeMarkdown = "text/markdown; charset=utf-8"

// PostMarkdownHandler godoc
// @Summary      Post as Markdown
// @Description  Front matter plus the body, for LLM crawlers.
// @Tags         ai
// @Param        slug  path  string  true  "Post slug"
// @Produce      plain
// @Success      200  {string}  string
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /ai/posts/{slug}/markdown [get]
func PostMarkdownHandler(svc *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		md, err := svc.Markdown(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, contentTypeMarkdown, []byte(md))
	}
}

// PostMetadataHandler godoc
// @Summary      Structured post metadata
// @Tags         ai
// @Param        slug  path  string  true  "Post slug"
// @Produce      json
// @Success      200  {object}  object{success=bool,data=object}
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /ai/posts/{slug}/metadata [get]
func PostMetadataHandler(svc *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		meta, err := svc.Metadata(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, meta)
	}
}

// PostAnalysisHandler godoc
// @Summary      Heuristic content analysis
// @Description  키워드, 가독성, 구조 점수를 계산한다.
// @Tags         ai
// @Param        slug  path  string  true  "Post slug"
// @Produce      json
// @Success      200  {object}  object{success=bool,data=object}
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /ai/posts/{slug}/analysis [get]
func PostAnalysisHandler(svc *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		analysis, err := svc.Analysis(c.Request.Context(), c.Param("slug"))
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, analysis)
	}
}

// LLMsTxtHandler godoc
// @Summary      llms.txt
// @Tags         ai
// @Produce      plain
// @Success      200  {string}  string
// @Router       /ai/llms.txt [get]
func LLMsTxtHandler(svc *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := svc.LLMsTxt(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, services.ContentTypeText, []byte(body))
	}
}

// ContentIndexHandler godoc
// @Summary      Content index of published posts
// @Tags         ai
// @Produce      json
// @Success      200  {object}  object{success=bool,data=[]object}
// @Router       /ai/content-index [get]
func ContentIndexHandler(svc *services.AIService) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := svc.ContentIndex(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		ok(c, entries)
	}
}

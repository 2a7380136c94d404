// Category HTTP handlers.
//
//   - GET /categories                 (overview with counts and latest thread)
//   - GET /categories/{slug}          (single category)
//   - GET /categories/{slug}/threads  (thread listing, weak ETag)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-forum-backend/internal/domain"
	"github.com/tbourn/go-forum-backend/internal/repo"
)

// ListCategoriesResponse wraps the category overview.
type ListCategoriesResponse struct {
	Categories []domain.CategoryOverview `json:"categories"`
}

// CategoryThreadsResponse is a category with its threads, pinned first.
type CategoryThreadsResponse struct {
	Category *domain.Category         `json:"category"`
	Threads  []domain.ThreadListItem `json:"threads"`
}

// ListCategories godoc
// @ID          listCategories
// @Summary     List categories
// @Description Returns every category in display order with its thread count and latest thread.
// @Tags        Categories
// @Produce     json
// @Success     200  {object}  handlers.ListCategoriesResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	items, err := h.categories.Overview(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ListCategoriesResponse{Categories: items})
}

// GetCategory godoc
// @ID          getCategory
// @Summary     Get a category
// @Tags        Categories
// @Produce     json
// @Param       slug  path  string  true  "Category slug"  example(the-symposium)
// @Success     200  {object}  domain.Category
// @Failure     404  {object}  handlers.ErrorResponse  "Category not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories/{slug} [get]
func (h *Handlers) GetCategory(c *gin.Context) {
	cat, err := h.categories.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, cat)
}

// ListCategoryThreads godoc
// @ID          listCategoryThreads
// @Summary     List a category's threads
// @Description Pinned threads first, then by most recent activity. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Categories
// @Produce     json
// @Param       slug           path    string  true   "Category slug"               example(the-commons)
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"  example(W/\"threads:1:3:10:1735689600\")
// @Success     200  {object}  handlers.CategoryThreadsResponse
// @Header      200  {string}  ETag  "Weak ETag for current result"
// @Success     304  {string}  string  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse  "Category not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories/{slug}/threads [get]
func (h *Handlers) ListCategoryThreads(c *gin.Context) {
	ctx := c.Request.Context()
	slug := c.Param("slug")

	// ETag pre-check (best effort).
	if h.db != nil {
		if cat, err := h.categories.GetBySlug(ctx, slug); err == nil {
			if st, err := repo.ThreadsStats(ctx, h.db, cat.ID); err == nil {
				var ts int64
				if st.Latest != nil {
					ts = st.Latest.Unix()
				}
				etag := fmt.Sprintf(`W/"threads:%d:%d:%d:%d"`, cat.ID, st.Count, st.Views, ts)
				if notModified(c, etag) {
					return
				}
			}
		}
	}

	cat, items, err := h.threads.ListByCategorySlug(ctx, slug)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, CategoryThreadsResponse{Category: cat, Threads: items})
}

// Moderation HTTP handlers, mounted behind middleware.AdminToken:
//   - GET /admin/poems          (every stored poem with its key, ETag support)
//   - GET /admin/poems/recent   (recently shown poems with their keys)
package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-poem-bot/internal/domain"
	"github.com/tbourn/go-poem-bot/internal/repo"
	"github.com/tbourn/go-poem-bot/internal/utils"
)

// AdminPoem is a poem as moderators see it, deletion key included.
type AdminPoem struct {
	domain.Poem
	DeletionKey string `json:"deletion_key" example:"QwErTyUiOpAsDfGh"`
	Display     string `json:"display"`
}

// AdminPoemsResponse lists poems for moderators. Count is the number of
// poems in the full listing; Page is set only for paged requests.
type AdminPoemsResponse struct {
	Poems []AdminPoem `json:"poems"`
	Count int         `json:"count"`
	Page  *utils.Page `json:"page,omitempty"`
}

func adminPoem(p domain.Poem, display string) AdminPoem {
	if display == "" {
		display = p.DisplayMessage(true)
	}
	return AdminPoem{Poem: p, DeletionKey: p.DeletionKey, Display: display}
}

// ListPoems godoc
// @ID          adminListPoems
// @Summary     Dump all poems
// @Description Returns every stored poem with its deletion key and serve counters.
// @Description A weak ETag changes whenever a poem is added, removed or served.
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Token  header  string  true   "Moderation token"
// @Param       page           query   int     false  "1-based page number"
// @Param       page_size      query   int     false  "Page size; omit for everything"
// @Success     200  {object}  handlers.AdminPoemsResponse
// @Success     304  "Not modified"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing token"
// @Failure     403  {object}  handlers.ErrorResponse  "Wrong token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/poems [get]
func (h *Handlers) ListPoems(c *gin.Context) {
	ctx := c.Request.Context()

	// ETag pre-check (best effort).
	if db := h.db(); db != nil {
		count, last, err := repo.PoemsStats(ctx, db)
		if err == nil {
			var ts int64
			if last != nil {
				ts = last.UnixNano()
			}
			etag := fmt.Sprintf(`W/"poems:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	poems, err := h.poems.DumpAll(ctx)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	resp := AdminPoemsResponse{Count: len(poems)}
	if pg, paged := utils.ParsePage(c.Query("page"), c.Query("page_size")); paged {
		start, end := pg.Bounds(len(poems))
		poems = poems[start:end]
		resp.Page = &pg
	}
	resp.Poems = make([]AdminPoem, 0, len(poems))
	for _, p := range poems {
		resp.Poems = append(resp.Poems, adminPoem(p, ""))
	}
	ok(c, http.StatusOK, resp)
}

// RecentPoems godoc
// @ID          adminRecentPoems
// @Summary     List recently shown poems
// @Description Returns the recently served poems, oldest first, with deletion keys.
// @Tags        Admin
// @Produce     json
// @Param       X-Admin-Token  header  string  true  "Moderation token"
// @Success     200  {object}  handlers.AdminPoemsResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Missing token"
// @Failure     403  {object}  handlers.ErrorResponse  "Wrong token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /admin/poems/recent [get]
func (h *Handlers) RecentPoems(c *gin.Context) {
	recent, err := h.poems.ListRecent(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	out := make([]AdminPoem, 0, len(recent))
	for _, r := range recent {
		out = append(out, adminPoem(r.Poem, r.Display))
	}
	ok(c, http.StatusOK, AdminPoemsResponse{Poems: out, Count: len(out)})
}

// Poem HTTP handlers.
//
// This file exposes REST endpoints for poems:
//   - GET    /poems/{type}/random   (pick one of the least recently served)
//   - POST   /poems/{type}          (submit, returns the deletion key)
//   - DELETE /poems/{type}/{key}    (delete by secret)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and the same nick already
// submitted under that key, the handler returns the stored poem id and
// deletion key with `Idempotency-Replayed: true` instead of storing a copy.
// Keyed submissions must carry the nick in X-Nick, the header the middleware
// scopes lookups and rate limits by. A record whose poem was deleted is
// rebound to the poem stored by the retry.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-poem-bot/internal/chat"
	"github.com/tbourn/go-poem-bot/internal/domain"
	"github.com/tbourn/go-poem-bot/internal/http/middleware"
	"github.com/tbourn/go-poem-bot/internal/repo"
	"github.com/tbourn/go-poem-bot/internal/services"
)

// IdempotencyTTL bounds how long a submission can be replayed.
const IdempotencyTTL = 24 * time.Hour

// PoemService defines the poem operations consumed by HTTP handlers.
// Implementations must be safe for concurrent use.
type PoemService interface {
	SubmitPoem(ctx context.Context, poemType domain.PoemType, submittedBy, content string) (*domain.Poem, error)
	PickRandom(ctx context.Context, poemType domain.PoemType, f services.Filter) (*domain.Poem, error)
	Delete(ctx context.Context, poemType domain.PoemType, deletionKey string) (bool, error)
	ListRecent(ctx context.Context) ([]services.RecentPoem, error)
	DumpAll(ctx context.Context) ([]domain.Poem, error)
}

// CommandDispatcher runs chat commands on behalf of HTTP clients.
type CommandDispatcher interface {
	Handle(ctx context.Context, m chat.Message) ([]chat.Reply, error)
}

// Handlers groups the HTTP endpoints. It depends on abstract services to
// keep transport concerns separate from business logic.
type Handlers struct {
	poems    PoemService
	commands CommandDispatcher

	// Now is the clock for idempotency records. Defaults to UTC wall time.
	Now func() time.Time
}

// New constructs Handlers bound to the given services.
func New(poems PoemService, commands CommandDispatcher) *Handlers {
	return &Handlers{poems: poems, commands: commands}
}

func (h *Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

// db returns the store behind a concrete PoemService, or nil for fakes.
// Idempotency records and ETags need it directly.
func (h *Handlers) db() *gorm.DB {
	if svc, ok := h.poems.(*services.PoemService); ok {
		return svc.DB
	}
	return nil
}

//
// DTOs
//

// SubmitPoemRequest is the JSON payload for submitting a poem.
type SubmitPoemRequest struct {
	// Nick attributes the poem. Falls back to the X-Nick header.
	Nick string `json:"nick" example:"alice"`
	// Content holds the lines separated by "/".
	Content string `json:"content" binding:"required" example:"an old silent pond/a frog jumps into the pond/splash! silence again"`
}

// SubmitPoemResponse carries the new poem id and its deletion key. The key is
// returned exactly once; keep it to delete the poem later.
type SubmitPoemResponse struct {
	ID          string `json:"id" example:"7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab"`
	DeletionKey string `json:"deletion_key" example:"QwErTyUiOpAsDfGh"`
}

// RandomPoemResponse is a served poem and its chat rendering.
type RandomPoemResponse struct {
	Text string       `json:"text" example:"an old silent pond/a frog jumps into the pond/splash! silence again -- submitted by alice"`
	Poem *domain.Poem `json:"poem"`
}

// poemType parses the :type path parameter, answering 404 when unknown.
func poemType(c *gin.Context) (domain.PoemType, bool) {
	t, err := domain.ParsePoemType(c.Param("type"))
	if err != nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "unknown poem type")
		return "", false
	}
	return t, true
}

// optional returns a pointer to the trimmed query value, or nil when blank.
func optional(c *gin.Context, name string) *string {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil
	}
	return &v
}

//
// Handlers
//

// RandomPoem godoc
// @ID          randomPoem
// @Summary     Fetch a random poem
// @Description Picks uniformly among the five least recently served poems of the type,
// @Description optionally filtered by a case-sensitive substring and/or the submitter.
// @Tags        Poems
// @Produce     json
// @Param       type  path   string  true   "Poem type"  Enums(haiku, tanka, limerick)
// @Param       with  query  string  false  "Substring the content must contain"
// @Param       by    query  string  false  "Exact submitter nick"
// @Success     200  {object}  handlers.RandomPoemResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown type or no matching poem"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /poems/{type}/random [get]
func (h *Handlers) RandomPoem(c *gin.Context) {
	t, okType := poemType(c)
	if !okType {
		return
	}
	f := services.Filter{Contains: optional(c, "with"), SubmittedBy: optional(c, "by")}

	p, err := h.poems.PickRandom(c.Request.Context(), t, f)
	switch {
	case errors.Is(err, services.ErrNoMatchingPoems):
		fail(c, http.StatusNotFound, ErrCodeNotFound, services.NoMatchMessage(t))
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeFetchFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, RandomPoemResponse{Text: p.DisplayMessage(false), Poem: p})
}

// SubmitPoem godoc
// @ID          submitPoem
// @Summary     Submit a poem
// @Description Stores a poem and returns its one-time deletion key. Lines are separated by "/".
// @Description Supports idempotency via the Idempotency-Key header (same nick and key → same result).
// @Description A keyed submission must send its nick in X-Nick; a body nick that differs from X-Nick is rejected.
// @Tags        Poems
// @Accept      json
// @Produce     json
// @Param       type             path    string  true   "Poem type"  Enums(haiku, tanka, limerick)
// @Param       X-Nick           header  string  false  "Submitter nick; required with Idempotency-Key"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.SubmitPoemRequest  true  "Poem payload"
// @Success     201  {object}  handlers.SubmitPoemResponse
// @Success     200  {object}  handlers.SubmitPoemResponse  "Replayed submission"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request, nick mismatch or wrong line count"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown poem type"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /poems/{type} [post]
func (h *Handlers) SubmitPoem(c *gin.Context) {
	ctx := c.Request.Context()
	t, okType := poemType(c)
	if !okType {
		return
	}

	var req SubmitPoemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	idemKey, _ := middleware.GetIdempotencyKey(c)
	headerNick := middleware.NickFrom(c)
	nick := strings.TrimSpace(req.Nick)
	switch {
	case nick != "" && headerNick != "" && nick != headerNick:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "nick mismatch")
		return
	case idemKey != "" && headerNick == "":
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "X-Nick header required with Idempotency-Key")
		return
	case nick == "":
		nick = headerNick
	}
	if nick == "" || strings.ContainsAny(nick, " \t\r\n") {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "nick required")
		return
	}
	if err := t.CheckLines(req.Content); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeWrongLineCount, t.LinesHint())
		return
	}

	db := h.db()
	if idemKey != "" && db != nil {
		if prev, found := h.replay(ctx, db, nick, idemKey, h.now()); found {
			c.Header(middleware.HeaderIdempotencyReplayed, "true")
			ok(c, http.StatusOK, SubmitPoemResponse{ID: prev.ID, DeletionKey: prev.DeletionKey})
			return
		}
	}

	p, err := h.poems.SubmitPoem(ctx, t, nick, req.Content)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, err.Error())
		return
	}

	if idemKey != "" && db != nil {
		h.remember(c, db, nick, idemKey, p.ID)
	}

	ok(c, http.StatusCreated, SubmitPoemResponse{ID: p.ID, DeletionKey: p.DeletionKey})
}

// replay finds the poem previously stored under (nick, key) that is still
// valid at now. A record whose poem was deleted since does not count.
func (h *Handlers) replay(ctx context.Context, db *gorm.DB, nick, key string, now time.Time) (*domain.Poem, bool) {
	rec, err := repo.GetIdempotency(ctx, db, nick, key, now)
	if err != nil {
		return nil, false
	}
	found, err := repo.FindPoemsByIDs(ctx, db, []string{rec.PoemID})
	if err != nil {
		return nil, false
	}
	p, exists := found[rec.PoemID]
	return &p, exists
}

// remember records poemID as the outcome of (nick, key). An existing record
// is stale here (its poem is gone or it expired unpurged) unless a concurrent
// request under the same key stored it first; only a stale one is rebound.
func (h *Handlers) remember(c *gin.Context, db *gorm.DB, nick, key, poemID string) {
	ctx := c.Request.Context()
	now := h.now()
	_, err := repo.CreateIdempotency(ctx, db, nick, key, poemID, http.StatusCreated, now, IdempotencyTTL)
	if errors.Is(err, repo.ErrDuplicate) {
		if _, live := h.replay(ctx, db, nick, key, now); live {
			middleware.LoggerFrom(c).Warn().Str("poem_id", poemID).Msg("concurrent submission under the same idempotency key")
			return
		}
		err = repo.RebindIdempotency(ctx, db, nick, key, poemID, http.StatusCreated, now, IdempotencyTTL)
	}
	if err != nil {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("store idempotency record")
	}
}

// DeletePoem godoc
// @ID          deletePoem
// @Summary     Delete a poem by its deletion key
// @Description Removes the poem of the given type whose deletion key matches. The key is the only credential.
// @Tags        Poems
// @Param       type  path  string  true  "Poem type"  Enums(haiku, tanka, limerick)
// @Param       key   path  string  true  "Deletion key"
// @Success     204
// @Failure     404  {object}  handlers.ErrorResponse  "No poem with that key"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /poems/{type}/{key} [delete]
func (h *Handlers) DeletePoem(c *gin.Context) {
	t, okType := poemType(c)
	if !okType {
		return
	}
	deleted, err := h.poems.Delete(c.Request.Context(), t, c.Param("key"))
	switch {
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeDeleteFailed, err.Error())
	case !deleted:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Could not find "+t.String()+" with that deletion key :(")
	default:
		noContent(c)
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-poem-bot/internal/chat"
	"github.com/tbourn/go-poem-bot/internal/http/middleware"
)

// CommandResponse lists the replies a chat command produced. Private replies
// are addressed to the caller's nick.
type CommandResponse struct {
	Replies []chat.Reply `json:"replies"`
}

// RunCommand godoc
// @ID          runCommand
// @Summary     Run a chat command
// @Description Executes a bot command as if it was typed in chat. Either set "command" and "text",
// @Description or leave "command" empty and put a raw line such as "!haiku with=frog" in "text".
// @Tags        Commands
// @Accept      json
// @Produce     json
// @Param       X-Nick  header  string        false  "Caller nick when not in the body"
// @Param       body    body    chat.Message  true   "Command"
// @Success     200  {object}  handlers.CommandResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or unknown command"
// @Failure     403  {object}  handlers.ErrorResponse  "Moderator command from a non-moderator"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Router      /commands [post]
func (h *Handlers) RunCommand(c *gin.Context) {
	m := chat.Message{Nick: middleware.NickFrom(c)}
	if err := c.ShouldBindJSON(&m); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "nick required")
		return
	}

	replies, err := h.commands.Handle(c.Request.Context(), m)
	switch {
	case errors.Is(err, chat.ErrUnknownCommand):
		fail(c, http.StatusBadRequest, ErrCodeUnknownCommand, err.Error())
		return
	case errors.Is(err, chat.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeCommandFailed, err.Error())
		return
	}
	if replies == nil {
		replies = []chat.Reply{}
	}
	ok(c, http.StatusOK, CommandResponse{Replies: replies})
}

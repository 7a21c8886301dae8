package chat

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tbourn/go-poem-bot/internal/domain"
	"github.com/tbourn/go-poem-bot/internal/services"
)

// GenericFailure is the reply sent when the store fails.
const GenericFailure = "Something went wrong, please try again later."

// Admin command names.
const (
	CmdAllPoems    = "allpoems"
	CmdRecentPoems = "recentpoems"
)

// PoemService is the subset of services.PoemService the dispatcher drives.
type PoemService interface {
	Submit(ctx context.Context, poemType domain.PoemType, submittedBy, content string) (string, error)
	FetchRandom(ctx context.Context, poemType domain.PoemType, f services.Filter) (string, error)
	Delete(ctx context.Context, poemType domain.PoemType, deletionKey string) (bool, error)
	ListRecent(ctx context.Context) ([]services.RecentPoem, error)
	DumpAll(ctx context.Context) ([]domain.Poem, error)
}

// Message is one inbound command. When Command is empty, Text is parsed as a
// raw chat line with the dispatcher's prefix.
type Message struct {
	User    string `json:"user"`
	Nick    string `json:"nick"    binding:"required"`
	Channel string `json:"channel"`
	Command string `json:"command"`
	Text    string `json:"text"`
}

// Reply is one outbound line. Private replies go to Target as a direct
// message; public ones are posted in the Target channel.
type Reply struct {
	Target  string `json:"target"`
	Private bool   `json:"private"`
	Text    string `json:"text"`
}

type action int

const (
	actSubmitOrFetch action = iota
	actFetchWith
	actFetchBy
	actDelete
)

type route struct {
	poemType domain.PoemType
	act      action
}

// Dispatcher maps chat commands to PoemService calls.
type Dispatcher struct {
	Poems   PoemService
	BotNick string
	Prefix  string
	Log     zerolog.Logger

	admins map[string]struct{}
	routes map[string]route
}

// NewDispatcher builds a dispatcher answering as botNick. Nicks in admins may
// run the moderation commands.
func NewDispatcher(svc PoemService, botNick, prefix string, admins []string, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		Poems:   svc,
		BotNick: botNick,
		Prefix:  prefix,
		Log:     log,
		admins:  make(map[string]struct{}, len(admins)),
		routes:  make(map[string]route, 4*len(domain.PoemTypes)),
	}
	for _, a := range admins {
		if a = strings.TrimSpace(a); a != "" {
			d.admins[a] = struct{}{}
		}
	}
	for _, t := range domain.PoemTypes {
		name := t.String()
		d.routes[name] = route{t, actSubmitOrFetch}
		d.routes[name+"with"] = route{t, actFetchWith}
		d.routes[name+"by"] = route{t, actFetchBy}
		d.routes["delete"+name] = route{t, actDelete}
	}
	return d
}

// Commands lists every command name the dispatcher answers, sorted.
func (d *Dispatcher) Commands() []string {
	out := make([]string, 0, len(d.routes)+2)
	for name := range d.routes {
		out = append(out, name)
	}
	out = append(out, CmdAllPoems, CmdRecentPoems)
	sort.Strings(out)
	return out
}

// IsAdmin reports whether nick may run moderation commands.
func (d *Dispatcher) IsAdmin(nick string) bool {
	_, ok := d.admins[nick]
	return ok
}

// Handle runs one command and returns the replies to deliver. A raw line that
// is not a command yields no replies and no error. Storage failures are logged
// and answered with GenericFailure rather than returned.
func (d *Dispatcher) Handle(ctx context.Context, m Message) ([]Reply, error) {
	cmd, rest := strings.ToLower(strings.TrimSpace(m.Command)), strings.TrimSpace(m.Text)
	if cmd == "" {
		var ok bool
		if cmd, rest, ok = ParseLine(m.Text, d.Prefix); !ok {
			return nil, nil
		}
	}

	switch cmd {
	case CmdAllPoems, CmdRecentPoems:
		if !d.IsAdmin(m.Nick) {
			return nil, fmt.Errorf("%w: %s", ErrForbidden, cmd)
		}
		if cmd == CmdAllPoems {
			return d.allPoems(ctx, m)
		}
		return d.recentPoems(ctx, m)
	}

	r, ok := d.routes[cmd]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}

	switch r.act {
	case actSubmitOrFetch:
		if rest != "" {
			return d.submit(ctx, m, r.poemType, rest), nil
		}
		return d.fetch(ctx, m, cmd, r.poemType, services.Filter{}), nil
	case actFetchWith:
		return d.fetch(ctx, m, cmd, r.poemType, services.Filter{Contains: &rest}), nil
	case actFetchBy:
		return d.fetch(ctx, m, cmd, r.poemType, services.Filter{SubmittedBy: &rest}), nil
	default:
		return d.delete(ctx, m, r.poemType, rest), nil
	}
}

func (d *Dispatcher) submit(ctx context.Context, m Message, t domain.PoemType, content string) []Reply {
	if err := t.CheckLines(content); err != nil {
		return []Reply{d.reply(m, t.LinesHint())}
	}
	key, err := d.Poems.Submit(ctx, t, m.Nick, content)
	if err != nil {
		return d.failure(m, t.String(), err)
	}
	return []Reply{
		d.reply(m, title(t)+" Saved!"),
		d.private(m, fmt.Sprintf("You can delete this %s with /msg %s delete%s %s", t, d.BotNick, t, key)),
	}
}

func (d *Dispatcher) fetch(ctx context.Context, m Message, cmd string, t domain.PoemType, f services.Filter) []Reply {
	msg, err := d.Poems.FetchRandom(ctx, t, f)
	if err != nil {
		return d.failure(m, cmd, err)
	}
	return []Reply{d.reply(m, msg)}
}

func (d *Dispatcher) delete(ctx context.Context, m Message, t domain.PoemType, key string) []Reply {
	ok, err := d.Poems.Delete(ctx, t, key)
	if err != nil {
		return d.failure(m, "delete"+t.String(), err)
	}
	if !ok {
		return []Reply{d.reply(m, fmt.Sprintf("Could not find %s with that deletion key :(", t))}
	}
	return []Reply{d.reply(m, "Deleted "+title(t)+"!")}
}

func (d *Dispatcher) allPoems(ctx context.Context, m Message) ([]Reply, error) {
	poems, err := d.Poems.DumpAll(ctx)
	if err != nil {
		return d.failure(m, CmdAllPoems, err), nil
	}
	if len(poems) == 0 {
		return []Reply{d.private(m, "No poems stored")}, nil
	}
	out := make([]Reply, 0, len(poems))
	for _, p := range poems {
		out = append(out, d.private(m, fmt.Sprintf("%s %s (served %d times)", p.ID, p.Content, p.TimesServed)))
	}
	return out, nil
}

func (d *Dispatcher) recentPoems(ctx context.Context, m Message) ([]Reply, error) {
	recent, err := d.Poems.ListRecent(ctx)
	if err != nil {
		return d.failure(m, CmdRecentPoems, err), nil
	}
	if len(recent) == 0 {
		return []Reply{d.reply(m, "No recent poems displayed")}, nil
	}
	out := make([]Reply, 0, len(recent))
	for _, r := range recent {
		out = append(out, d.private(m, r.Display))
	}
	return out, nil
}

func (d *Dispatcher) failure(m Message, cmd string, err error) []Reply {
	d.Log.Error().
		Err(err).
		Str("command", cmd).
		Str("nick", m.Nick).
		Str("channel", m.Channel).
		Msg("poem command failed")
	return []Reply{d.reply(m, GenericFailure)}
}

// reply answers where the command came from: the channel, or the nick when
// the command was a direct message.
func (d *Dispatcher) reply(m Message, text string) Reply {
	if m.Channel == "" || m.Channel == m.Nick {
		return d.private(m, text)
	}
	return Reply{Target: m.Channel, Text: text}
}

func (d *Dispatcher) private(m Message, text string) Reply {
	return Reply{Target: m.Nick, Private: true, Text: text}
}

// title upper-cases the type for reply labels ("Haiku Saved!"). Casers hold
// state, so one is built per call.
func title(t domain.PoemType) string {
	return cases.Title(language.English).String(t.String())
}

// IsUserError reports whether err is a caller mistake rather than a failure.
func IsUserError(err error) bool {
	return errors.Is(err, ErrUnknownCommand) || errors.Is(err, ErrForbidden)
}

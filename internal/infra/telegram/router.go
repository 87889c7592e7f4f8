package telegram

import (
	"sort"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Guard decides whether an update may reach a handler.
type Guard func(c telebot.Context) bool

// ChatGuard admits only updates from chatID.
func ChatGuard(chatID int64) Guard {
	return func(c telebot.Context) bool {
		chat := c.Chat()
		return chat != nil && chat.ID == chatID
	}
}

// registrar is the part of *telebot.Bot the router registers with.
type registrar interface {
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
}

// Router maps command names to handlers and checks a guard before dispatch.
type Router struct {
	routes map[string]telebot.HandlerFunc
	guard  Guard
	logger *logrus.Entry
}

func NewRouter(guard Guard, logger *logrus.Entry) *Router {
	return &Router{routes: map[string]telebot.HandlerFunc{}, guard: guard, logger: logger}
}

// Add binds command (e.g. "/list") or a telebot event endpoint to h,
// replacing any earlier binding.
func (r *Router) Add(command string, h telebot.HandlerFunc) {
	r.routes[command] = h
}

// Commands returns the bound command names, sorted.
func (r *Router) Commands() []string {
	out := make([]string, 0, len(r.routes))
	for cmd := range r.routes {
		out = append(out, cmd)
	}
	sort.Strings(out)
	return out
}

// Dispatch runs the handler for command. Updates rejected by the guard and
// unknown commands are dropped without a reply.
func (r *Router) Dispatch(command string, c telebot.Context) error {
	logCtx := r.logger.WithField("command", command)
	if chat := c.Chat(); chat != nil {
		logCtx = logCtx.WithField("chat_id", chat.ID)
	}

	if r.guard != nil && !r.guard(c) {
		logCtx.Warn("Unauthorized access attempt")
		return nil
	}
	h, ok := r.routes[command]
	if !ok {
		logCtx.Debug("No handler for command")
		return nil
	}
	logCtx.Info("Command received")
	return h(c)
}

// Register hands every route to the bot.
func (r *Router) Register(b registrar) {
	for _, cmd := range r.Commands() {
		cmd := cmd
		b.Handle(cmd, func(c telebot.Context) error { return r.Dispatch(cmd, c) })
	}
}

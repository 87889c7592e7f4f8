// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"github.com/xxSohoxx/scheduler-bot/internal/app"
	"github.com/xxSohoxx/scheduler-bot/internal/domain/datetime"
)

const helpMessage = `You can run the following commands:
    /help - get help and support
    /list - get all future events
    /event EVENT_NAME DATE TIME - add a new event
       example: "/event Doctor_appointment 01-11-2023 12:20"
    /birthday NAME DATE - add a birthday
       example: "/birthday Ana 10.06.1990"
    /birthdays - list stored birthdays
    /weather - today's weather forecast`

const invalidDateTimeMessage = "Invalid date or time. Use DD-MM-YYYY, DD.MM.YYYY, DD-MM or DD.MM for the date and HH:MM or HH-MM for the time."

// BotCommands holds the chat command handlers.
type BotCommands struct {
	commands *app.CommandService
	weather  *app.WeatherService
	timeout  time.Duration
	logger   *logrus.Entry
}

func NewBotCommands(commands *app.CommandService, weather *app.WeatherService, timeout time.Duration, logger *logrus.Entry) *BotCommands {
	return &BotCommands{commands: commands, weather: weather, timeout: timeout, logger: logger}
}

// Routes binds every command to r.
func (h *BotCommands) Routes(r *Router) {
	r.Add("/start", h.start)
	r.Add("/help", h.help)
	r.Add("/list", h.list)
	r.Add("/event", h.addEvent)
	r.Add("/birthday", h.addBirthday)
	r.Add("/birthdays", h.listBirthdays)
	r.Add("/weather", h.weatherNow)
	r.Add(telebot.OnUserJoined, h.welcome)
}

func (h *BotCommands) callContext() (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), h.timeout)
}

func (h *BotCommands) start(c telebot.Context) error {
	if u := c.Sender(); u != nil && u.FirstName != "" {
		return c.Send(fmt.Sprintf("Hi %s!", u.FirstName))
	}
	return c.Send("Hi!")
}

// welcome greets a member who joined the chat and shows the command list.
// telebot delivers one update per joined user.
func (h *BotCommands) welcome(c telebot.Context) error {
	msg := c.Message()
	if msg == nil || msg.UserJoined == nil {
		return nil
	}
	name := msg.UserJoined.Username
	if name == "" {
		name = msg.UserJoined.FirstName
	}
	if err := c.Send(fmt.Sprintf("Welcome, %s! Feel free to explore and use the available commands.", name)); err != nil {
		return err
	}
	return c.Send(helpMessage)
}

func (h *BotCommands) help(c telebot.Context) error {
	return c.Send(helpMessage)
}

func (h *BotCommands) list(c telebot.Context) error {
	ctx, cancel := h.callContext()
	defer cancel()

	events, err := h.commands.ListFutureEvents(ctx, c.Chat().ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list events")
		return c.Send(fmt.Sprintf("FAILED to read events. Error: %s", err.Error()))
	}
	if len(events) == 0 {
		return c.Send("No future events found.")
	}

	var b strings.Builder
	b.WriteString("Future Events:\n")
	for _, ev := range events {
		fmt.Fprintf(&b, "Event Name: %s\nDate: %s\nTime: %s\n\n", ev.Name, datetime.FormatDate(ev.At), datetime.FormatTime(ev.At))
	}
	return c.Send(strings.TrimRight(b.String(), "\n"))
}

// addEvent expects NAME DATE TIME. The name may contain spaces.
func (h *BotCommands) addEvent(c telebot.Context) error {
	args := c.Args()
	if len(args) < 3 {
		return c.Send("Please provide event details in the format: event_name date time")
	}
	name := strings.Join(args[:len(args)-2], " ")
	date, clock := args[len(args)-2], args[len(args)-1]

	ctx, cancel := h.callContext()
	defer cancel()

	ev, err := h.commands.AddEvent(ctx, c.Chat().ID, name, date, clock)
	switch {
	case err == nil:
	case errors.Is(err, datetime.ErrInvalidFormat):
		return c.Send(invalidDateTimeMessage)
	case errors.Is(err, app.ErrEmptyName):
		return c.Send("Please provide event details in the format: event_name date time")
	default:
		h.logger.WithError(err).WithField("event", name).Error("Failed to add event")
		return c.Send(fmt.Sprintf("FAILED to write new event. Error: %s", err.Error()))
	}

	h.logger.WithField("event", ev.Name).Info("New event has been added")
	return c.Send(fmt.Sprintf("Event has been added: Event Name - %s, Date - %s, Time - %s",
		ev.Name, datetime.FormatDate(ev.At), datetime.FormatTime(ev.At)))
}

// addBirthday expects NAME DATE. The name may contain spaces.
func (h *BotCommands) addBirthday(c telebot.Context) error {
	args := c.Args()
	if len(args) < 2 {
		return c.Send("Please provide birthday details in the format: name date")
	}
	person := strings.Join(args[:len(args)-1], " ")

	ctx, cancel := h.callContext()
	defer cancel()

	b, err := h.commands.AddBirthday(ctx, c.Chat().ID, person, args[len(args)-1])
	switch {
	case err == nil:
	case errors.Is(err, datetime.ErrInvalidFormat):
		return c.Send(invalidDateTimeMessage)
	case errors.Is(err, app.ErrEmptyName):
		return c.Send("Please provide birthday details in the format: name date")
	default:
		h.logger.WithError(err).WithField("person", person).Error("Failed to add birthday")
		return c.Send(fmt.Sprintf("FAILED to write new birthday. Error: %s", err.Error()))
	}

	return c.Send(fmt.Sprintf("Birthday has been added: %s - %s", b.Person, datetime.FormatDate(b.Born)))
}

func (h *BotCommands) listBirthdays(c telebot.Context) error {
	ctx, cancel := h.callContext()
	defer cancel()

	list, err := h.commands.ListBirthdays(ctx, c.Chat().ID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list birthdays")
		return c.Send(fmt.Sprintf("FAILED to read birthdays. Error: %s", err.Error()))
	}
	if len(list) == 0 {
		return c.Send("No birthdays stored.")
	}

	var b strings.Builder
	b.WriteString("Birthdays:\n")
	for _, bd := range list {
		fmt.Fprintf(&b, "%s - %s\n", bd.Person, datetime.FormatDate(bd.Born))
	}
	return c.Send(strings.TrimRight(b.String(), "\n"))
}

func (h *BotCommands) weatherNow(c telebot.Context) error {
	ctx, cancel := h.callContext()
	defer cancel()

	digest, err := h.weather.Digest(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("Weather forecast unavailable")
		return c.Send("Weather forecast is not available right now.")
	}
	return c.Send(digest)
}

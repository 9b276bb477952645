// Package tg wires the bot to Telegram: the update loop, command and
// callback routing, and outbound sends (replies and reminder pushes).
package tg

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"plantbot/internal/convo"
	"plantbot/internal/gardener"
	"plantbot/internal/metrics"
	"plantbot/internal/reminder"
	"plantbot/internal/repo"
	"plantbot/internal/species"
)

// Client wraps the Telegram bot API and routes updates to the conversation
// engine, the store, and the reminder dispatcher.
type Client struct {
	bot        *tgbotapi.BotAPI
	repository repo.Repository
	engine     *convo.Engine
	dispatcher *reminder.Dispatcher
	species    *species.Client
	gardener   *gardener.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Config holds construction parameters for the Telegram client.
type Config struct {
	Token    string
	Species  *species.Client
	Gardener *gardener.Client
	Metrics  *metrics.Metrics
}

// New authenticates against the Telegram bot API.
func New(cfg Config, repository repo.Repository, engine *convo.Engine, logger *slog.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}

	c := &Client{
		bot:        bot,
		repository: repository,
		engine:     engine,
		species:    cfg.Species,
		gardener:   cfg.Gardener,
		logger:     logger.With("component", "tg"),
		metrics:    cfg.Metrics,
	}
	c.logger.Info("telegram bot authorised", "username", bot.Self.UserName)
	return c, nil
}

// SetDispatcher attaches the reminder dispatcher after construction; the
// dispatcher in turn uses this client as its reminder sender.
func (c *Client) SetDispatcher(d *reminder.Dispatcher) {
	c.dispatcher = d
}

// Start runs the long-polling update loop until ctx is cancelled.
func (c *Client) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := c.bot.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		c.bot.StopReceivingUpdates()
	}()

	for upd := range updates {
		switch {
		case upd.Message != nil:
			c.metrics.TGIncomingUpdates.WithLabelValues("message").Inc()
			c.handleMessage(ctx, upd.Message)
		case upd.CallbackQuery != nil:
			c.metrics.TGIncomingUpdates.WithLabelValues("callback").Inc()
			c.handleCallback(ctx, upd.CallbackQuery)
		}
	}
	return nil
}

// SendReminder pushes a watering reminder with an acknowledgement button
// keyed by the plant id. Implements reminder.Sender.
func (c *Client) SendReminder(ctx context.Context, chatID, plantID int64, plantName string) error {
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(msgReminder, plantName))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(btnWatered, fmt.Sprintf("watered_%d", plantID)),
		),
	)
	if _, err := c.bot.Send(msg); err != nil {
		return fmt.Errorf("send reminder: %w", err)
	}
	c.metrics.TGOutgoingMessages.WithLabelValues("reminder").Inc()
	return nil
}

// send delivers a plain Markdown reply; failures are logged, not surfaced.
func (c *Client) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	c.deliver(msg)
}

// sendReply delivers an engine reply, attaching its keyboard when present.
func (c *Client) sendReply(chatID int64, reply convo.Reply) {
	if reply.Text == "" {
		return
	}
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if kb := inlineKeyboard(reply.Keyboard); kb != nil {
		msg.ReplyMarkup = *kb
	}
	c.deliver(msg)
}

func (c *Client) deliver(msg tgbotapi.MessageConfig) {
	if _, err := c.bot.Send(msg); err != nil {
		c.metrics.Errors.WithLabelValues("tg").Inc()
		c.logger.Error("failed sending message", "error", err, "chat_id", msg.ChatID)
		return
	}
	c.metrics.TGOutgoingMessages.WithLabelValues("reply").Inc()
}

func (c *Client) editText(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := c.bot.Send(edit); err != nil {
		c.metrics.Errors.WithLabelValues("tg").Inc()
		c.logger.Error("failed editing message", "error", err, "chat_id", chatID)
	}
}

// inlineKeyboard converts an engine keyboard to the Telegram representation.
func inlineKeyboard(rows [][]convo.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	var kbRows [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var kbRow []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		kbRows = append(kbRows, kbRow)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	return &kb
}

func profileFrom(msg *tgbotapi.Message) repo.UserProfile {
	p := repo.UserProfile{ChatID: msg.Chat.ID}
	if msg.From != nil {
		p.Username = optional(msg.From.UserName)
		p.FirstName = optional(msg.From.FirstName)
		p.LastName = optional(msg.From.LastName)
	}
	return p
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

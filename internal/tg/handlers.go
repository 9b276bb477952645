package tg

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"plantbot/internal/convo"
)

func (c *Client) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		c.handleCommand(ctx, msg)
		return
	}
	c.handleText(ctx, msg)
}

func (c *Client) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	// Every interaction refreshes the user row; the upsert is idempotent.
	if _, err := c.repository.UpsertUser(ctx, profileFrom(msg)); err != nil {
		c.metrics.Errors.WithLabelValues("tg").Inc()
		c.logger.Error("failed upserting user", "error", err, "chat_id", chatID)
	}

	switch msg.Command() {
	case "start":
		c.send(chatID, msgWelcome)
	case "help":
		c.send(chatID, msgHelp)
	case "myplants":
		c.handleMyPlants(ctx, msg)
	case "addplant":
		c.sendReply(chatID, c.engine.StartAddPlant(chatID))
	case "checkreminders":
		c.handleCheckReminders(ctx, chatID)
	case "species":
		c.handleSpecies(ctx, chatID, msg.CommandArguments())
	case "gardener":
		c.handleGardener(ctx, chatID, msg.CommandArguments())
	default:
		c.send(chatID, msgUnknownCommand)
	}
}

func (c *Client) handleText(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	reply, handled, err := c.engine.HandleText(ctx, profileFrom(msg), text)
	if err != nil {
		c.metrics.Errors.WithLabelValues("convo").Inc()
		c.logger.Error("conversation step failed", "error", err, "chat_id", msg.Chat.ID)
	}
	if handled {
		c.sendReply(msg.Chat.ID, reply)
		return
	}
	c.send(msg.Chat.ID, msgHint)
}

func (c *Client) handleMyPlants(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	user, err := c.repository.UpsertUser(ctx, profileFrom(msg))
	if err != nil {
		c.send(chatID, msgStoreFailure)
		return
	}
	plants, err := c.repository.ListPlants(ctx, user.ID)
	if err != nil {
		c.metrics.Errors.WithLabelValues("tg").Inc()
		c.logger.Error("failed listing plants", "error", err, "chat_id", chatID)
		c.send(chatID, msgStoreFailure)
		return
	}

	if len(plants) == 0 {
		reply := tgbotapi.NewMessage(chatID, msgNoPlants)
		reply.ParseMode = tgbotapi.ModeMarkdown
		reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(btnAddPlant, "add_plant"),
			),
		)
		c.deliver(reply)
		return
	}

	var b strings.Builder
	b.WriteString("🌿 *My plants:*\n\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, p := range plants {
		b.WriteString(fmt.Sprintf("• *%s*", p.Name))
		if p.WateringEveryDays != nil {
			b.WriteString(fmt.Sprintf(" 💧 every %d days", *p.WateringEveryDays))
		}
		b.WriteString("\n")

		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💧 Reminders: "+p.Name, fmt.Sprintf("reminders_%d", p.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete: "+p.Name, fmt.Sprintf("delete_%d", p.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(btnAddPlant, "add_plant"),
	))

	reply := tgbotapi.NewMessage(chatID, b.String())
	reply.ParseMode = tgbotapi.ModeMarkdown
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	c.deliver(reply)
}

// handleCheckReminders runs one dispatcher scan on demand.
func (c *Client) handleCheckReminders(ctx context.Context, chatID int64) {
	if c.dispatcher == nil {
		c.send(chatID, msgStoreFailure)
		return
	}
	sent, err := c.dispatcher.Scan(ctx)
	if err != nil {
		c.send(chatID, msgStoreFailure)
		return
	}
	if sent == 0 {
		c.send(chatID, "✅ All plants are watered on time!")
		return
	}
	c.send(chatID, fmt.Sprintf("📨 Sent %d reminders", sent))
}

func (c *Client) handleSpecies(ctx context.Context, chatID int64, query string) {
	if c.species == nil {
		c.send(chatID, msgSpeciesUnavailable)
		return
	}
	query = strings.TrimSpace(query)
	if query == "" {
		c.send(chatID, "🌍 Usage: /species <plant name>")
		return
	}
	sp, err := c.species.Search(ctx, query)
	if err != nil {
		c.logger.Error("species search failed", "error", err, "query", query)
		c.send(chatID, "⚠️ Species search is unavailable right now.")
		return
	}
	if sp == nil {
		c.send(chatID, "ℹ️ No species found.")
		return
	}

	var b strings.Builder
	name := sp.CommonName
	if name == "" {
		name = query
	}
	b.WriteString(fmt.Sprintf("🌱 *%s*\n", name))
	b.WriteString(fmt.Sprintf("🔬 Scientific name: %s\n", sp.ScientificName))
	if sp.Family != "" {
		b.WriteString(fmt.Sprintf("🌿 Family: %s\n", sp.Family))
	}
	if sp.ImageURL != "" {
		b.WriteString("\nPhoto: " + sp.ImageURL)
	}
	c.send(chatID, b.String())
}

func (c *Client) handleGardener(ctx context.Context, chatID int64, question string) {
	if c.gardener == nil {
		c.send(chatID, msgGardenerUnavailable)
		return
	}
	question = strings.TrimSpace(question)
	if question == "" {
		c.send(chatID, "👨‍🌾 Usage: /gardener <your question>")
		return
	}
	answer, err := c.gardener.Ask(ctx, question)
	if err != nil {
		c.logger.Error("gardener request failed", "error", err)
		c.send(chatID, "⚠️ The gardener is unavailable right now.")
		return
	}
	c.send(chatID, answer)
}

func (c *Client) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	data := cq.Data

	// Always answer the callback so the client stops its spinner.
	if _, err := c.bot.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
		c.logger.Debug("failed answering callback", "error", err)
	}

	switch {
	case data == "add_plant":
		c.sendReply(chatID, c.engine.StartAddPlant(chatID))

	case data == "custom_interval":
		c.sendReply(chatID, c.engine.PromptCustomInterval(chatID))

	case strings.HasPrefix(data, "interval_"):
		days, err := strconv.Atoi(strings.TrimPrefix(data, "interval_"))
		if err != nil || !convo.IsPreset(days) {
			return
		}
		reply, err := c.engine.CommitInterval(ctx, chatID, days)
		if err != nil {
			c.metrics.Errors.WithLabelValues("convo").Inc()
			c.logger.Error("interval commit failed", "error", err, "chat_id", chatID)
		}
		c.sendReply(chatID, reply)

	case strings.HasPrefix(data, "reminders_"):
		plantID, ok := callbackPlantID(data, "reminders_")
		if !ok {
			return
		}
		reply, err := c.engine.StartIntervalConfig(ctx, chatID, plantID)
		if err != nil {
			c.metrics.Errors.WithLabelValues("convo").Inc()
			c.logger.Error("interval config start failed", "error", err, "chat_id", chatID)
		}
		c.sendReply(chatID, reply)

	case strings.HasPrefix(data, "delete_"):
		plantID, ok := callbackPlantID(data, "delete_")
		if !ok {
			return
		}
		if err := c.repository.DeletePlant(ctx, plantID); err != nil {
			c.metrics.Errors.WithLabelValues("tg").Inc()
			c.logger.Error("failed deleting plant", "error", err, "plant_id", plantID)
			c.send(chatID, msgStoreFailure)
			return
		}
		c.editText(chatID, cq.Message.MessageID, msgPlantDeleted)

	case strings.HasPrefix(data, "watered_"):
		plantID, ok := callbackPlantID(data, "watered_")
		if !ok {
			return
		}
		// A stale or double-tapped acknowledgement still reads as success.
		if err := c.dispatcher.Acknowledge(ctx, plantID); err != nil {
			c.metrics.Errors.WithLabelValues("tg").Inc()
			c.logger.Error("acknowledgement failed", "error", err, "plant_id", plantID)
		}
		c.editText(chatID, cq.Message.MessageID, msgWateredAck)
	}
}

func callbackPlantID(data, prefix string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

package telegram

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lessonhub/lesson-ledger-bot/internal/conversation"
	"github.com/lessonhub/lesson-ledger-bot/internal/domain/shared"
	tgclient "github.com/lessonhub/lesson-ledger-bot/internal/infrastructure/external/telegram"
	"github.com/lessonhub/lesson-ledger-bot/internal/interface/telegram/middleware"
	"github.com/lessonhub/lesson-ledger-bot/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// BotConfig configures the update loop.
type BotConfig struct {
	// MaxConcurrentUpdates caps the number of updates processed in
	// parallel.
	MaxConcurrentUpdates int

	Logger *slog.Logger
}

// DefaultBotConfig returns sensible defaults.
func DefaultBotConfig() BotConfig {
	return BotConfig{MaxConcurrentUpdates: 16}
}

// Bot ties the Telegram client, the middleware chain and the router into
// the long-polling update loop.
type Bot struct {
	client   *tgclient.Client
	router   *Router
	auth     *middleware.AuthMiddleware
	limiter  *middleware.RateLimiter
	recovery *middleware.RecoveryMiddleware
	logger   *slog.Logger

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewBot creates a Bot.
func NewBot(
	client *tgclient.Client,
	router *Router,
	auth *middleware.AuthMiddleware,
	limiter *middleware.RateLimiter,
	recovery *middleware.RecoveryMiddleware,
	config BotConfig,
) *Bot {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxConcurrentUpdates <= 0 {
		config.MaxConcurrentUpdates = DefaultBotConfig().MaxConcurrentUpdates
	}
	return &Bot{
		client:   client,
		router:   router,
		auth:     auth,
		limiter:  limiter,
		recovery: recovery,
		logger:   logger.With("component", "bot"),
		sem:      make(chan struct{}, config.MaxConcurrentUpdates),
	}
}

// Run polls updates until the context is cancelled, then waits for the
// in-flight updates to finish.
func (b *Bot) Run(ctx context.Context) error {
	err := b.client.StartPolling(ctx, b.dispatch)
	b.wg.Wait()
	return err
}

// dispatch fans one update out to a worker. Updates from distinct
// operators run in parallel; the session store serializes nothing, so
// per-operator ordering relies on Telegram delivering one operator's
// updates in order within a single poll batch.
func (b *Bot) dispatch(ctx context.Context, update *tgclient.Update) error {
	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() { <-b.sem }()
		b.handleUpdate(ctx, update)
	}()
	return nil
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgclient.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGES
// ══════════════════════════════════════════════════════════════════════════════

func (b *Bot) handleMessage(ctx context.Context, msg *tgclient.Message) {
	if msg.From == nil || msg.Chat == nil || !tgclient.IsPrivateChat(msg) {
		return
	}
	chatID := msg.Chat.ID

	op, ok := b.admit(ctx, chatID, msg.From.ID)
	if !ok {
		return
	}
	ctx = middleware.ContextWithOperatorID(ctx, op)

	result, err := b.recovery.RecoverWithHandler(msg.From.ID, "message", func() error {
		var (
			response Response
			err      error
		)
		if cmd := tgclient.ExtractCommand(msg); cmd != "" {
			response, err = b.router.HandleCommand(ctx, op, CommandInput{
				Command:    cmd,
				Args:       tgclient.ExtractCommandArgs(msg),
				TelegramID: msg.From.ID,
				Username:   msg.From.Username,
				FirstName:  msg.From.FirstName,
				LastName:   msg.From.LastName,
			})
		} else {
			response, err = b.router.HandleText(ctx, op, msg.Text)
		}
		if err != nil {
			return err
		}
		b.sendReplies(ctx, chatID, response.Replies)
		return nil
	})
	b.reportFailure(ctx, chatID, "message", result, err)
}

// ══════════════════════════════════════════════════════════════════════════════
// CALLBACKS
// ══════════════════════════════════════════════════════════════════════════════

func (b *Bot) handleCallback(ctx context.Context, cq *tgclient.CallbackQuery) {
	if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		return
	}
	chatID := cq.Message.Chat.ID

	op, ok := b.admit(ctx, chatID, cq.From.ID)
	if !ok {
		b.answerCallback(ctx, cq.ID, "", false)
		return
	}
	ctx = middleware.ContextWithOperatorID(ctx, op)

	result, err := b.recovery.RecoverWithHandler(cq.From.ID, "callback", func() error {
		response, err := b.router.HandleCallback(ctx, op, cq.Data)
		if err != nil {
			return err
		}

		b.answerCallback(ctx, cq.ID, response.Ack, response.AckAlert)
		if response.Edit != nil {
			if _, err := b.client.EditMessageText(ctx, chatID, cq.Message.MessageID,
				response.Edit.Text, renderKeyboard(response.Edit.Keyboard)); err != nil {
				b.logger.Warn("edit message failed", "chat_id", chatID, "error", err)
			}
		}
		b.sendReplies(ctx, chatID, response.Replies)
		return nil
	})
	b.reportFailure(ctx, chatID, "callback", result, err)
}

// ══════════════════════════════════════════════════════════════════════════════
// PLUMBING
// ══════════════════════════════════════════════════════════════════════════════

// admit runs the rate-limit and allowlist checks, messaging the sender
// on rejection.
func (b *Bot) admit(ctx context.Context, chatID, telegramID int64) (shared.OperatorID, bool) {
	if rl := b.limiter.Check(telegramID); !rl.Allowed {
		if rl.ResponseMessage != "" {
			b.send(ctx, chatID, conversation.Text(rl.ResponseMessage))
		}
		return 0, false
	}

	auth := b.auth.Authorize(telegramID)
	if !auth.Allowed {
		b.logger.Warn("unauthorized access attempt", "telegram_id", telegramID)
		b.send(ctx, chatID, conversation.Text(auth.ResponseMessage))
		return 0, false
	}
	return shared.OperatorID(telegramID), true
}

// reportFailure sends the generic apology after a panic or a handler
// error. Validation never surfaces here; flows retry those in place.
func (b *Bot) reportFailure(ctx context.Context, chatID int64, operation string, result middleware.RecoveryResult, err error) {
	if result.Recovered {
		b.send(ctx, chatID, conversation.Text(result.UserMessage))
		return
	}
	if err != nil {
		b.logger.Error("update handling failed", "operation", operation, "error", err)
		b.send(ctx, chatID, conversation.Text(presenter.TextGenericError))
	}
}

func (b *Bot) sendReplies(ctx context.Context, chatID int64, rs []conversation.Reply) {
	for _, r := range rs {
		b.send(ctx, chatID, r)
	}
}

func (b *Bot) send(ctx context.Context, chatID int64, r conversation.Reply) {
	_, err := b.client.SendMessage(ctx, tgclient.SendMessageParams{
		ChatID:      chatID,
		Text:        r.Text,
		ParseMode:   "HTML",
		ReplyMarkup: renderKeyboard(r.Keyboard),
	})
	if err != nil {
		b.logger.Error("send failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) answerCallback(ctx context.Context, id, text string, alert bool) {
	if err := b.client.AnswerCallbackQuery(ctx, id, text, alert); err != nil {
		b.logger.Warn("answer callback failed", "error", err)
	}
}

// renderKeyboard converts the engine's transport-agnostic keyboard into
// Telegram inline markup.
func renderKeyboard(kb *conversation.Keyboard) *tgclient.InlineKeyboardMarkup {
	if kb.IsEmpty() {
		return nil
	}
	markup := &tgclient.InlineKeyboardMarkup{
		InlineKeyboard: make([][]tgclient.InlineKeyboardButton, 0, len(kb.Rows)),
	}
	for _, row := range kb.Rows {
		buttons := make([]tgclient.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgclient.Button(btn.Text, btn.Data))
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
	}
	return markup
}

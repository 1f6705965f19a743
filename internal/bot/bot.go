package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"timebudget/internal/model"
	"timebudget/internal/repository"
	"timebudget/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageCategory
	stageStart
	stageEnd
	stageLabel
)

type conversationState struct {
	stage conversationStage
	date  time.Time
	input service.AllocationInput
}

type confirmationAction int

const (
	actionDeleteAllocation confirmationAction = iota
	actionLoadTemplate
)

type confirmationRequest struct {
	action confirmationAction
	id     string
	date   time.Time
}

// Services bundles the core the bot presents.
type Services struct {
	Users       *repository.UserRepository
	Allocations *service.AllocationService
	Preferences *service.PreferencesService
	Summaries   *service.SummaryService
	Templates   *service.TemplateService
	Categories  *service.CategoryService
	Reminders   *service.ReminderService
}

// Bot aggregates Telegram API with services. Per-user UI state (selected date, dialog,
// pending confirmation) lives only here; the store is re-read on every action.
type Bot struct {
	api           *tgbotapi.BotAPI
	svc           Services
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	selectedDates map[int64]time.Time
	mu            sync.Mutex
}

func New(token string, svc Services) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	slog.Info("bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:           api,
		svc:           svc,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
		selectedDates: make(map[int64]time.Time),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	slog.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				slog.Error("handle callback", "error", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				slog.Error("handle message", "error", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	}

	if msg.IsCommand() {
		slog.Debug("command", "from", msg.From.ID, "command", msg.Command(), "args", msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /add, чтобы добавить блок, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "day":
		return b.handleDay(ctx, msg, args)
	case "add":
		return b.startAddConversation(ctx, msg)
	case "edit":
		return b.handleEdit(ctx, msg, args)
	case "del":
		return b.handleDelete(ctx, msg, args)
	case "summary":
		return b.handleSummary(ctx, msg, args)
	case "window":
		return b.handleWindow(ctx, msg, args)
	case "categories":
		return b.sendText(msg.Chat.ID, formatCategories(b.svc.Categories.List()))
	case "savetemplate":
		return b.handleSaveTemplate(ctx, msg, args)
	case "templates":
		return b.handleTemplates(ctx, msg)
	case "loadtemplate":
		return b.handleLoadTemplate(ctx, msg, args)
	case "deltemplate":
		return b.handleDeleteTemplate(ctx, msg, args)
	case "report":
		return b.handleReport(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelDay):
		return true, b.handleDay(ctx, msg, "")
	case strings.ToLower(menuLabelAdd):
		return true, b.startAddConversation(ctx, msg)
	case strings.ToLower(menuLabelSummary):
		return true, b.handleSummary(ctx, msg, "")
	case strings.ToLower(menuLabelTpl):
		return true, b.handleTemplates(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.sendText(msg.Chat.ID, helpText)
	default:
		return false, nil
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		slog.Warn("callback ack", "error", err)
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID
	slog.Debug("callback", "from", cb.From.ID, "data", data)

	switch {
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.askDeleteConfirmation(ctx, chatID, cb.From, strings.TrimPrefix(data, cbDeletePrefix))
	case strings.HasPrefix(data, cbTemplateLoadPrefix):
		return b.askLoadConfirmation(ctx, chatID, cb.From, strings.TrimPrefix(data, cbTemplateLoadPrefix), b.selectedDate(cb.From.ID))
	case strings.HasPrefix(data, cbTemplateDelPrefix):
		return b.deleteTemplateAndRefresh(ctx, chatID, cb.From, strings.TrimPrefix(data, cbTemplateDelPrefix))
	case strings.HasPrefix(data, cbDayPrefix):
		shift, err := strconv.Atoi(strings.TrimPrefix(data, cbDayPrefix))
		if err != nil {
			return nil
		}
		date := today()
		if shift != 0 {
			date = b.selectedDate(cb.From.ID).AddDate(0, 0, shift)
		}
		b.setSelectedDate(cb.From.ID, date)
		user, err := b.ensureUser(ctx, cb.From)
		if err != nil {
			return err
		}
		return b.sendDayView(ctx, chatID, user, date)
	default:
		return nil
	}
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionLoadTemplate {
			return b.loadTemplateAndRefresh(ctx, msg.Chat.ID, msg.From, req.id, req.date)
		}
		return b.deleteAllocationAndRefresh(ctx, msg.Chat.ID, msg.From, req.id)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		prompt := "Подтверди или отмени удаление блока."
		if req.action == actionLoadTemplate {
			prompt = "Подтверди или отмени загрузку шаблона."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

// SendDailyReports sends the daily digest to every known user.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	users, err := b.svc.Users.ListAll(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	for i := range users {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		user := users[i]
		text, err := b.svc.Reminders.DailyDigest(ctx, &user, now)
		if err != nil {
			slog.Error("build digest", "telegram_id", user.TelegramID, "error", err)
			continue
		}
		if err := b.sendText(user.TelegramID, text); err != nil {
			slog.Error("send digest", "telegram_id", user.TelegramID, "error", err)
		}
	}
	slog.Info("daily digests sent", "users", len(users))
	return nil
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.svc.Users.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🔹 Главное меню")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func today() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (b *Bot) selectedDate(userID int64) time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d, ok := b.selectedDates[userID]; ok {
		return d
	}
	return today()
}

func (b *Bot) setSelectedDate(userID int64, date time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selectedDates[userID] = date
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

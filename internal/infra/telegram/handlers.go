package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/config"
	"telegram-group-subscription/internal/domain"
	"telegram-group-subscription/internal/domain/model"
	"telegram-group-subscription/internal/domain/ports/adapter"
	"telegram-group-subscription/internal/domain/ports/repository"
	"telegram-group-subscription/internal/infra/i18n"
	"telegram-group-subscription/internal/infra/logging"
	"telegram-group-subscription/internal/infra/metrics"
	"telegram-group-subscription/internal/usecase"
)

// Callback data values. Payment-scoped callbacks carry the payment id after
// the colon.
const (
	cbSubscribe    = "subscribe"
	cbStatus       = "status"
	cbPayConfirm   = "pay_confirm"
	cbPayCancel    = "pay_cancel"
	cbOverwriteYes = "overwrite_yes"
	cbCheckPayment = "check_payment"
	cbAdminApprove = "admin_approve"
	cbAdminReject  = "admin_reject"
)

// BotHandler routes Telegram updates through the conversation flow: the
// subscribe wizard, payment checks and the admin approval callbacks.
type BotHandler struct {
	bot      *RealBotAdapter
	lex      *i18n.Translator
	state    repository.StateRepository
	users    usecase.UserUseCase
	init     usecase.InitiationUseCase
	life     usecase.LifecycleUseCase
	settings usecase.SettingsUseCase
	stats    usecase.StatsUseCase
	subs     repository.SubscriptionRepository
	payments repository.PaymentRepository
	userRepo repository.UserRepository
	gateway  adapter.PaymentGateway

	groupID  int64
	admins   map[int64]struct{}
	minAmt   int64
	currency string
	termDays int

	log *zerolog.Logger
}

func NewBotHandler(
	bot *RealBotAdapter,
	lex *i18n.Translator,
	state repository.StateRepository,
	users usecase.UserUseCase,
	init usecase.InitiationUseCase,
	life usecase.LifecycleUseCase,
	settings usecase.SettingsUseCase,
	stats usecase.StatsUseCase,
	subs repository.SubscriptionRepository,
	payments repository.PaymentRepository,
	userRepo repository.UserRepository,
	gateway adapter.PaymentGateway,
	botCfg *config.BotConfig,
	subCfg *config.SubscriptionConfig,
	logger *zerolog.Logger,
) *BotHandler {
	admins := make(map[int64]struct{}, len(botCfg.AdminIDs))
	for _, id := range botCfg.AdminIDs {
		admins[id] = struct{}{}
	}
	l := logger.With().Str("component", "BotHandler").Logger()
	return &BotHandler{
		bot:      bot,
		lex:      lex,
		state:    state,
		users:    users,
		init:     init,
		life:     life,
		settings: settings,
		stats:    stats,
		subs:     subs,
		payments: payments,
		userRepo: userRepo,
		gateway:  gateway,
		groupID:  botCfg.GroupID,
		admins:   admins,
		minAmt:   subCfg.MinAmount,
		currency: subCfg.Currency,
		termDays: subCfg.TermDays,
		log:      &l,
	}
}

// Handle tags the context with a trace id and the sender's telegram id so
// every log line of one update carries the same correlation fields.
func (h *BotHandler) Handle(ctx context.Context, update tgbotapi.Update) {
	ctx = logging.WithTraceID(ctx, uuid.NewString())
	switch {
	case update.CallbackQuery != nil:
		ctx = logging.WithTgID(ctx, update.CallbackQuery.From.ID)
		if err := h.handleCallback(ctx, update.CallbackQuery); err != nil {
			logging.With(ctx, h.log).Error().Err(err).Msg("callback failed")
		}
	case update.Message != nil && update.Message.From != nil:
		ctx = logging.WithTgID(ctx, update.Message.From.ID)
		if err := h.handleMessage(ctx, update.Message); err != nil {
			logging.With(ctx, h.log).Error().Err(err).Msg("message failed")
		}
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	from := msg.From
	fullName := strings.TrimSpace(from.FirstName + " " + from.LastName)
	user, _, err := h.users.Register(ctx, from.ID, fullName, from.UserName)
	if err != nil {
		h.sendPlain(ctx, from.ID, h.lex.T("error.generic"))
		return err
	}

	if msg.IsCommand() {
		return h.handleCommand(ctx, user, msg)
	}

	st, err := h.state.GetState(ctx, from.ID)
	if err == nil && st != nil {
		switch st.Step {
		case repository.StepAwaitingAmount:
			return h.handleAmountInput(ctx, user, msg.Text)
		case repository.StepAwaitingProof:
			return h.handleProofUpload(ctx, user, st, msg)
		}
	}
	return h.sendMenu(ctx, user)
}

func (h *BotHandler) handleCommand(ctx context.Context, user *model.User, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return h.sendMenu(ctx, user)
	case "subscribe":
		return h.startSubscribe(ctx, user)
	case "status":
		return h.sendStatus(ctx, user)
	case "manual_mode":
		if !h.isAdmin(user.TelegramID) {
			h.sendPlain(ctx, user.TelegramID, h.lex.T("admin.only"))
			return nil
		}
		return h.toggleManualMode(ctx, user, msg.CommandArguments())
	case "stats":
		if !h.isAdmin(user.TelegramID) {
			h.sendPlain(ctx, user.TelegramID, h.lex.T("admin.only"))
			return nil
		}
		return h.sendStats(ctx, user)
	default:
		return h.sendMenu(ctx, user)
	}
}

func (h *BotHandler) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	user, _, err := h.users.Register(ctx, cq.From.ID, strings.TrimSpace(cq.From.FirstName+" "+cq.From.LastName), cq.From.UserName)
	if err != nil {
		h.bot.AnswerCallback(cq.ID, h.lex.T("error.generic"))
		return err
	}

	data, arg := splitCallback(cq.Data)
	switch data {
	case cbSubscribe:
		h.bot.AnswerCallback(cq.ID, "")
		return h.startSubscribe(ctx, user)
	case cbStatus:
		h.bot.AnswerCallback(cq.ID, "")
		return h.sendStatus(ctx, user)
	case cbOverwriteYes:
		h.bot.AnswerCallback(cq.ID, "")
		return h.askAmount(ctx, user)
	case cbPayConfirm:
		h.bot.AnswerCallback(cq.ID, "")
		return h.confirmPayment(ctx, user)
	case cbPayCancel:
		h.bot.AnswerCallback(cq.ID, "")
		_ = h.state.ClearState(ctx, user.TelegramID)
		h.sendPlain(ctx, user.TelegramID, h.lex.T("payment.cancelled"))
		return nil
	case cbCheckPayment:
		return h.checkPayment(ctx, user, cq, arg)
	case cbAdminApprove, cbAdminReject:
		return h.adminVerdict(ctx, user, cq, data, arg)
	default:
		h.bot.AnswerCallback(cq.ID, "")
		return nil
	}
}

func (h *BotHandler) sendMenu(ctx context.Context, user *model.User) error {
	rows := [][]adapter.InlineButton{
		{{Text: h.lex.T("menu.subscribe_button"), Data: cbSubscribe}},
		{{Text: h.lex.T("menu.status_button"), Data: cbStatus}},
	}
	name := user.FullName
	if name == "" {
		name = user.Username
	}
	_, err := h.bot.SendMessage(ctx, user.TelegramID, h.lex.T("menu.start", name), rows)
	return err
}

func (h *BotHandler) sendStatus(ctx context.Context, user *model.User) error {
	sub, err := h.subs.FindActiveByUser(ctx, repository.NoTX, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.sendPlain(ctx, user.TelegramID, h.lex.T("status.none"))
			return nil
		}
		return err
	}
	h.sendPlain(ctx, user.TelegramID,
		h.lex.T("status.active", sub.DaysLeft(time.Now()), sub.EndDate.Format("02.01.2006")))
	return nil
}

// startSubscribe begins the wizard. An unfinished pending subscription asks
// for an explicit overwrite first.
func (h *BotHandler) startSubscribe(ctx context.Context, user *model.User) error {
	pending, err := h.subs.FindOtherByUserAndStatus(ctx, repository.NoTX, user.ID, "", model.SubscriptionStatusPending)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if len(pending) > 0 {
		if err := h.state.SetState(ctx, user.TelegramID, &repository.ConversationState{
			Step: repository.StepAwaitingOverwriteConfirm,
			Data: map[string]string{},
		}); err != nil {
			return err
		}
		rows := [][]adapter.InlineButton{{
			{Text: h.lex.T("payment.confirm_button"), Data: cbOverwriteYes},
			{Text: h.lex.T("payment.cancel_button"), Data: cbPayCancel},
		}}
		_, err := h.bot.SendMessage(ctx, user.TelegramID, h.lex.T("payment.overwrite_confirm"), rows)
		return err
	}
	return h.askAmount(ctx, user)
}

func (h *BotHandler) askAmount(ctx context.Context, user *model.User) error {
	if err := h.state.SetState(ctx, user.TelegramID, &repository.ConversationState{
		Step: repository.StepAwaitingAmount,
		Data: map[string]string{},
	}); err != nil {
		return err
	}
	h.sendPlain(ctx, user.TelegramID, h.lex.T("payment.enter_amount", h.minAmt, h.currency))
	return nil
}

func (h *BotHandler) handleAmountInput(ctx context.Context, user *model.User, text string) error {
	amount, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || amount <= 0 {
		h.sendPlain(ctx, user.TelegramID, h.lex.T("payment.amount_invalid"))
		return nil
	}
	if amount < h.minAmt {
		h.sendPlain(ctx, user.TelegramID, h.lex.T("payment.amount_too_small", h.minAmt, h.currency))
		return nil
	}

	if err := h.state.SetState(ctx, user.TelegramID, &repository.ConversationState{
		Step: repository.StepAwaitingConfirm,
		Data: map[string]string{"amount": strconv.FormatInt(amount, 10)},
	}); err != nil {
		return err
	}
	rows := [][]adapter.InlineButton{{
		{Text: h.lex.T("payment.confirm_button"), Data: cbPayConfirm},
		{Text: h.lex.T("payment.cancel_button"), Data: cbPayCancel},
	}}
	_, err = h.bot.SendMessage(ctx, user.TelegramID, h.lex.T("payment.confirm", amount, h.currency, h.termDays), rows)
	return err
}

// confirmPayment runs the branch picked by the manual-mode switch: create a
// gateway invoice or ask for a transfer screenshot.
func (h *BotHandler) confirmPayment(ctx context.Context, user *model.User) error {
	st, err := h.state.GetState(ctx, user.TelegramID)
	if err != nil || st == nil || st.Step != repository.StepAwaitingConfirm {
		h.sendPlain(ctx, user.TelegramID, h.lex.T("error.generic"))
		return err
	}
	amount, err := strconv.ParseInt(st.Data["amount"], 10, 64)
	if err != nil {
		h.sendPlain(ctx, user.TelegramID, h.lex.T("error.generic"))
		return err
	}

	settings, err := h.settings.Get(ctx)
	if err != nil {
		h.sendPlain(ctx, user.TelegramID, h.lex.T("error.generic"))
		return err
	}

	if settings.ManualPaymentEnabled {
		st.Step = repository.StepAwaitingProof
		if err := h.state.SetState(ctx, user.TelegramID, st); err != nil {
			return err
		}
		h.sendPlain(ctx, user.TelegramID, h.lex.T("payment.manual_instructions", amount, h.currency))
		return nil
	}

	_ = h.state.ClearState(ctx, user.TelegramID)
	p, payURL, err := h.init.StartGatewayPayment(ctx, user.ID, amount)
	if err != nil {
		if errors.Is(err, domain.ErrAmountTooSmall) {
			h.sendPlain(ctx, user.TelegramID, h.lex.T("payment.amount_too_small", h.minAmt, h.currency))
			return nil
		}
		h.sendPlain(ctx, user.TelegramID, h.lex.T("payment.gateway_error"))
		return err
	}

	rows := [][]adapter.InlineButton{
		{{Text: h.lex.T("payment.pay_button"), URL: payURL}},
		{{Text: h.lex.T("payment.check_button"), Data: cbCheckPayment + ":" + p.ID}},
	}
	msgID, err := h.bot.SendMessage(ctx, user.TelegramID, h.lex.T("payment.link_ready"), rows)
	if err != nil {
		return err
	}
	if err := h.init.AttachBotMessage(ctx, p.ID, msgID); err != nil {
		h.log.Warn().Err(err).Str("payment_id", p.ID).Msg("attach bot message failed")
	}
	return nil
}

func (h *BotHandler) handleProofUpload(ctx context.Context, user *model.User, st *repository.ConversationState, msg *tgbotapi.Message) error {
	fileID := proofFileID(msg)
	if fileID == "" {
		h.sendPlain(ctx, user.TelegramID, h.lex.T("payment.proof_invalid"))
		return nil
	}
	amount, err := strconv.ParseInt(st.Data["amount"], 10, 64)
	if err != nil {
		h.sendPlain(ctx, user.TelegramID, h.lex.T("error.generic"))
		return err
	}

	_ = h.state.ClearState(ctx, user.TelegramID)
	p, err := h.init.SubmitManualProof(ctx, user.ID, amount, fileID)
	if err != nil {
		h.sendPlain(ctx, user.TelegramID, h.lex.T("error.generic"))
		return err
	}

	h.sendPlain(ctx, user.TelegramID, h.lex.T("payment.proof_received"))
	h.notifyAdmins(ctx, user, p)
	return nil
}

// notifyAdmins fans the approval request out to every configured admin.
func (h *BotHandler) notifyAdmins(ctx context.Context, user *model.User, p *model.Payment) {
	who := user.FullName
	if user.Username != "" {
		who = fmt.Sprintf("%s (@%s)", who, user.Username)
	}
	text := h.lex.T("admin.new_manual_payment", who, p.Amount, p.Currency, p.ID)
	rows := [][]adapter.InlineButton{{
		{Text: h.lex.T("admin.approve_button"), Data: cbAdminApprove + ":" + p.ID},
		{Text: h.lex.T("admin.reject_button"), Data: cbAdminReject + ":" + p.ID},
	}}
	for adminID := range h.admins {
		if _, err := h.bot.SendMessage(ctx, adminID, text, rows); err != nil {
			h.log.Warn().Err(err).Int64("admin_id", adminID).Msg("admin notification failed")
		}
	}
}

// checkPayment is the user-initiated poll trigger. The provider is asked for
// the real status; the stored payment is never trusted on its own.
func (h *BotHandler) checkPayment(ctx context.Context, user *model.User, cq *tgbotapi.CallbackQuery, paymentID string) error {
	p, err := h.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.bot.AnswerCallback(cq.ID, h.lex.T("payment.not_found"))
			return nil
		}
		h.bot.AnswerCallback(cq.ID, h.lex.T("error.generic"))
		return err
	}
	if p.Status == model.PaymentStatusSucceeded {
		h.bot.AnswerCallback(cq.ID, h.lex.T("payment.already_active"))
		return nil
	}
	if p.GatewayID == nil {
		h.bot.AnswerCallback(cq.ID, h.lex.T("payment.pending"))
		return nil
	}

	status, err := h.gateway.Find(ctx, *p.GatewayID)
	if err != nil {
		h.bot.AnswerCallback(cq.ID, h.lex.T("payment.gateway_error"))
		return err
	}
	if status != adapter.GatewayStatusSucceeded {
		h.bot.AnswerCallback(cq.ID, h.lex.T("payment.pending"))
		return nil
	}

	h.bot.AnswerCallback(cq.ID, "")
	outcome, err := h.life.Confirm(ctx, usecase.PaymentRef{PaymentID: paymentID})
	if err != nil {
		h.sendPlain(ctx, user.TelegramID, h.lex.T("error.generic"))
		return err
	}
	metrics.IncConfirmation("poll", outcome.String())
	logging.With(ctx, h.log).Info().Str("payment_id", paymentID).Stringer("outcome", outcome).Msg("poll confirmation")
	return nil
}

func (h *BotHandler) adminVerdict(ctx context.Context, admin *model.User, cq *tgbotapi.CallbackQuery, action, paymentID string) error {
	if !h.isAdmin(admin.TelegramID) {
		h.bot.AnswerCallback(cq.ID, h.lex.T("admin.only"))
		return nil
	}
	h.bot.AnswerCallback(cq.ID, "")

	var text string
	switch action {
	case cbAdminApprove:
		outcome, err := h.life.ApproveManual(ctx, paymentID, admin.TelegramID)
		if err != nil {
			h.sendPlain(ctx, admin.TelegramID, h.lex.T("error.generic"))
			return err
		}
		metrics.IncConfirmation("manual", outcome.String())
		logging.With(ctx, h.log).Info().Str("payment_id", paymentID).Stringer("outcome", outcome).Msg("manual approval")
		text = h.lex.T("admin.approved", paymentID)
	case cbAdminReject:
		if err := h.life.Reject(ctx, paymentID, admin.TelegramID); err != nil {
			if !errors.Is(err, domain.ErrInvalidTransition) {
				h.sendPlain(ctx, admin.TelegramID, h.lex.T("error.generic"))
				return err
			}
		} else {
			h.notifyRejected(ctx, paymentID)
		}
		text = h.lex.T("admin.rejected", paymentID)
	}

	if cq.Message != nil {
		return h.bot.EditMessage(ctx, admin.TelegramID, cq.Message.MessageID, text, nil)
	}
	h.sendPlain(ctx, admin.TelegramID, text)
	return nil
}

// notifyRejected tells the paying user their claim was turned down. Lookup
// failures only cost the courtesy message, never the verdict.
func (h *BotHandler) notifyRejected(ctx context.Context, paymentID string) {
	p, err := h.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		h.log.Warn().Err(err).Str("payment_id", paymentID).Msg("rejected payment lookup failed")
		return
	}
	payer, err := h.userRepo.FindByID(ctx, repository.NoTX, p.UserID)
	if err != nil {
		h.log.Warn().Err(err).Str("user_id", p.UserID).Msg("rejected payer lookup failed")
		return
	}
	h.sendPlain(ctx, payer.TelegramID, h.lex.T("payment.rejected_user"))
}

func (h *BotHandler) toggleManualMode(ctx context.Context, admin *model.User, arg string) error {
	enabled := strings.EqualFold(strings.TrimSpace(arg), "on")
	if _, err := h.settings.SetManualMode(ctx, enabled); err != nil {
		h.sendPlain(ctx, admin.TelegramID, h.lex.T("error.generic"))
		return err
	}
	key := "admin.manual_mode_off"
	if enabled {
		key = "admin.manual_mode_on"
	}
	h.sendPlain(ctx, admin.TelegramID, h.lex.T(key))
	return nil
}

func (h *BotHandler) sendStats(ctx context.Context, admin *model.User) error {
	users, byStatus, err := h.stats.Totals(ctx)
	if err != nil {
		return err
	}
	week, month, year, err := h.stats.Revenue(ctx)
	if err != nil {
		return err
	}
	text := fmt.Sprintf(
		"Users: %d\nActive: %d\nPending: %d\nExpired: %d\nRevenue week/month/year: %d / %d / %d %s",
		users,
		byStatus[model.SubscriptionStatusActive],
		byStatus[model.SubscriptionStatusPending],
		byStatus[model.SubscriptionStatusExpired],
		week, month, year, h.currency,
	)
	h.sendPlain(ctx, admin.TelegramID, text)
	return nil
}

func (h *BotHandler) sendPlain(ctx context.Context, tgID int64, text string) {
	if _, err := h.bot.SendMessage(ctx, tgID, text, nil); err != nil {
		h.log.Debug().Err(err).Int64("tg_id", tgID).Msg("send failed")
	}
}

func (h *BotHandler) isAdmin(tgID int64) bool {
	_, ok := h.admins[tgID]
	return ok
}

func splitCallback(data string) (action, arg string) {
	if i := strings.IndexByte(data, ':'); i >= 0 {
		return data[:i], data[i+1:]
	}
	return data, ""
}

// proofFileID extracts a usable file id from a proof message: the largest
// photo size, or the attached document.
func proofFileID(msg *tgbotapi.Message) string {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID
	}
	if msg.Document != nil {
		return msg.Document.FileID
	}
	return ""
}

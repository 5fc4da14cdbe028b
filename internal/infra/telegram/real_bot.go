package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/domain/ports/adapter"
	"telegram-group-subscription/internal/infra/metrics"
)

// RealBotAdapter implements adapter.GroupBotAdapter over tgbotapi with
// concurrent long polling.
type RealBotAdapter struct {
	bot *tgbotapi.BotAPI
	log *zerolog.Logger

	// updateWorkers is how many goroutines process updates concurrently.
	updateWorkers int
	cancelPolling context.CancelFunc
}

var _ adapter.GroupBotAdapter = (*RealBotAdapter)(nil)

func NewRealBotAdapter(token string, updateWorkers int, logger *zerolog.Logger) (*RealBotAdapter, error) {
	if updateWorkers <= 0 {
		updateWorkers = 5
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	l := logger.With().Str("component", "TelegramBot").Logger()
	return &RealBotAdapter{
		bot:           bot,
		log:           &l,
		updateWorkers: updateWorkers,
	}, nil
}

// StartPolling polls Telegram for updates and feeds them to handle from a
// worker pool. It runs until ctx is canceled.
func (r *RealBotAdapter) StartPolling(ctx context.Context, handle func(ctx context.Context, update tgbotapi.Update)) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := r.bot.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	r.cancelPolling = cancel

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < r.updateWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for {
				select {
				case update, ok := <-updateChan:
					if !ok {
						return
					}
					handle(ctx, update)
				case <-ctx.Done():
					return
				}
			}
		}(i + 1)
	}

	go func() {
		defer close(updateChan)
		for {
			select {
			case update := <-updates:
				select {
				case updateChan <- update:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()
	r.bot.StopReceivingUpdates()
	wg.Wait()
	return nil
}

func (r *RealBotAdapter) StopPolling() {
	if r.cancelPolling != nil {
		r.cancelPolling()
	}
}

func (r *RealBotAdapter) GetMembership(ctx context.Context, groupID, telegramID int64) (adapter.MembershipStatus, error) {
	member, err := r.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: groupID,
			UserID: telegramID,
		},
	})
	if err != nil {
		return adapter.MembershipUnknown, fmt.Errorf("get chat member: %w", err)
	}
	switch member.Status {
	case "creator", "administrator", "member", "left", "kicked":
		return adapter.MembershipStatus(member.Status), nil
	default:
		return adapter.MembershipUnknown, nil
	}
}

func (r *RealBotAdapter) Ban(ctx context.Context, groupID, telegramID int64) error {
	_, err := r.bot.Request(tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: groupID,
			UserID: telegramID,
		},
	})
	if err != nil {
		return fmt.Errorf("ban member %d: %w", telegramID, err)
	}
	return nil
}

func (r *RealBotAdapter) Unban(ctx context.Context, groupID, telegramID int64) error {
	_, err := r.bot.Request(tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: groupID,
			UserID: telegramID,
		},
		OnlyIfBanned: true,
	})
	if err != nil {
		return fmt.Errorf("unban member %d: %w", telegramID, err)
	}
	return nil
}

// CreateInviteLink mints a fresh single-use invite valid until expiresAt.
func (r *RealBotAdapter) CreateInviteLink(ctx context.Context, groupID int64, expiresAt time.Time) (string, error) {
	resp, err := r.bot.Request(tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: groupID},
		ExpireDate:  int(expiresAt.Unix()),
		MemberLimit: 1,
	})
	if err != nil {
		return "", fmt.Errorf("create invite link: %w", err)
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("decode invite link: %w", err)
	}
	metrics.IncInviteIssued()
	return link.InviteLink, nil
}

func (r *RealBotAdapter) SendMessage(ctx context.Context, telegramID int64, text string, rows [][]adapter.InlineButton) (int, error) {
	msg := tgbotapi.NewMessage(telegramID, text)
	if kb := buildKeyboard(rows); kb != nil {
		msg.ReplyMarkup = *kb
	}
	sent, err := r.bot.Send(msg)
	if err != nil {
		return 0, fmt.Errorf("send message to %d: %w", telegramID, err)
	}
	return sent.MessageID, nil
}

func (r *RealBotAdapter) EditMessage(ctx context.Context, telegramID int64, messageID int, text string, rows [][]adapter.InlineButton) error {
	var err error
	if kb := buildKeyboard(rows); kb != nil {
		_, err = r.bot.Send(tgbotapi.NewEditMessageTextAndMarkup(telegramID, messageID, text, *kb))
	} else {
		_, err = r.bot.Send(tgbotapi.NewEditMessageText(telegramID, messageID, text))
	}
	if err != nil {
		return fmt.Errorf("edit message %d for %d: %w", messageID, telegramID, err)
	}
	return nil
}

// AnswerCallback acknowledges a callback query, optionally with a toast.
func (r *RealBotAdapter) AnswerCallback(callbackID, text string) {
	if _, err := r.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		r.log.Debug().Err(err).Msg("answer callback failed")
	}
}

func buildKeyboard(rows [][]adapter.InlineButton) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	var kbRows [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var kbRow []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			if b.URL != "" {
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		kbRows = append(kbRows, kbRow)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	return &kb
}

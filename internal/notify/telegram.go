// Package notify delivers best-effort trading alerts to Telegram.
// Failures here must never affect trading flow (spec §7 propagation
// rule).
package notify

import (
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the narrow slice of tgbotapi.BotAPI this package depends
// on, overridable in tests.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier sends alerts to a Telegram chat via the Bot API.
//
// Grounded on
// original_source/polymarket-compounder/utils/telegram_alerts.py
// (module-level enabled flag, silent no-op when disabled, all send
// failures caught and logged rather than propagated), reimplemented
// against github.com/go-telegram-bot-api/telegram-bot-api/v5 in place
// of the teacher's hand-rolled HTTP POST.
type Notifier struct {
	bot     sender
	chatID  int64
	enabled bool
}

// NewNotifier creates a Notifier. Notifications are enabled only when
// both botToken and chatID are non-zero/non-empty.
func NewNotifier(botToken string, chatID int64) (*Notifier, error) {
	if botToken == "" || chatID == 0 {
		return &Notifier{enabled: false}, nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("notify: init bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: chatID, enabled: true}, nil
}

// Enabled reports whether the notifier is active.
func (n *Notifier) Enabled() bool { return n.enabled }

// Send posts a message to the configured Telegram chat. Errors are
// returned to the caller, who is expected (per spec §7) to log and
// discard them rather than let them affect trading flow.
func (n *Notifier) Send(msg string) error {
	if !n.enabled {
		return nil
	}
	m := tgbotapi.NewMessage(n.chatID, msg)
	m.ParseMode = tgbotapi.ModeMarkdown
	_, err := n.bot.Send(m)
	if err != nil {
		return fmt.Errorf("notify: send: %w", err)
	}
	return nil
}

// NotifyFill sends a trade fill alert.
func (n *Notifier) NotifyFill(assetID, side string, price, size float64) error {
	msg := fmt.Sprintf("*Fill*\nAsset: `%s`\nSide: %s\nPrice: %.4f\nSize: %.2f", assetID, side, price, size)
	return n.Send(msg)
}

// NotifyStopLoss sends a stop-loss trigger alert.
func (n *Notifier) NotifyStopLoss(assetID string, pnl float64) error {
	msg := fmt.Sprintf("*Stop-Loss Triggered*\nAsset: `%s`\nPnL: %.2f USD", assetID, pnl)
	return n.Send(msg)
}

// NotifyEmergencyStop sends an emergency stop alert.
func (n *Notifier) NotifyEmergencyStop() error {
	return n.Send("*EMERGENCY STOP*\nMax drawdown exceeded. All trading halted.")
}

// NotifyDailySummary sends a daily performance summary.
func (n *Notifier) NotifyDailySummary(pnl float64, fills int, volume float64) error {
	msg := fmt.Sprintf("*Daily Summary*\nPnL: %.2f USD\nFills: %d\nVolume: %.2f USD", pnl, fills, volume)
	return n.Send(msg)
}

// NotifyRiskCooldown sends a risk cooldown alert after a loss streak.
func (n *Notifier) NotifyRiskCooldown(consecutiveLosses, maxConsecutiveLosses int, cooldownRemaining time.Duration) error {
	msg := fmt.Sprintf(
		"*Risk Cooldown*\nConsecutive Losses: %d/%d\nCooldown Remaining: %.0fs",
		consecutiveLosses, maxConsecutiveLosses, cooldownRemaining.Seconds(),
	)
	return n.Send(msg)
}

// NotifyPhaseChange announces a scheduler phase transition.
func (n *Notifier) NotifyPhaseChange(oldPhase, newPhase int) error {
	return n.Send(fmt.Sprintf("*Phase Change*\n%d -> %d", oldPhase, newPhase))
}

// NotifyDirectionalDisabled announces the directional engine's
// permanent self-disable after its win rate fell below the floor.
func (n *Notifier) NotifyDirectionalDisabled(trades int, winRate float64) error {
	return n.Send(fmt.Sprintf("*Directional Engine Disabled*\nTrades: %d\nWin rate: %.1f%%", trades, winRate*100))
}

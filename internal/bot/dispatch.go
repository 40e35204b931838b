package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/fleetpulse-io/fleetpulse/internal/omnicomm"
	"github.com/fleetpulse-io/fleetpulse/internal/pkg/metrics"
	"github.com/fleetpulse-io/fleetpulse/internal/pkg/util"
)

// displayErrLimit bounds error text shown to chat users. Raw stack traces
// never reach them; the original message is preserved up to this length.
const displayErrLimit = 500

const helpText = `🚛 <b>FleetPulse — fleet monitoring</b>

Commands:
/state &lt;plate or ID&gt; — current vehicle state
/find &lt;query&gt; — search by plate, garage number or VIN
/report [days] — fleet activity report (CSV)
/stats — bot usage statistics

Examples:
/state 2700РВ78
/state 326026157
/find 10039
/report 7`

func (s *Server) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	command := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())

	metrics.CommandTotal.WithLabelValues(command).Inc()
	userID := int64(0)
	username := ""
	if msg.From != nil {
		userID = msg.From.ID
		username = msg.From.UserName
	}
	if err := s.stats.LogCommand(ctx, userID, username, command, args); err != nil {
		s.lg.Warn("failed to record command stat", "err", err)
	}

	var err error
	switch command {
	case "start", "help":
		s.reply(msg.Chat.ID, helpText)
	case "state":
		err = s.handleState(ctx, msg.Chat.ID, args)
	case "find":
		err = s.handleFind(msg.Chat.ID, args)
	case "report":
		err = s.handleReport(ctx, msg.Chat.ID, args)
	case "stats":
		err = s.handleStats(ctx, msg.Chat.ID)
	default:
		s.reply(msg.Chat.ID, "Unknown command. Try /help.")
	}

	if err != nil {
		s.lg.Warn("command failed", "command", command, "err", err)
		if statErr := s.stats.LogError(ctx, userID, command, err.Error()); statErr != nil {
			s.lg.Warn("failed to record error stat", "err", statErr)
		}
		s.reply(msg.Chat.ID, userError(err))
	}
}

func (s *Server) handleState(ctx context.Context, chatID int64, identifier string) error {
	if identifier == "" {
		s.reply(chatID, "Give me a vehicle plate or terminal ID.\n\nExample: /state 2700РВ78 or /state 326026157")
		return nil
	}

	state, terminalID, err := s.svc.State(ctx, identifier)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			s.reply(chatID, fmt.Sprintf("❌ Vehicle %q is not in the database. Try /find to search.", identifier))
			return nil
		}
		return err
	}

	s.reply(chatID, FormatVehicleState(state, terminalID))
	return nil
}

func (s *Server) handleFind(chatID int64, query string) error {
	if query == "" {
		s.reply(chatID, "🔍 <b>Vehicle search</b>\n\nUsage: /find &lt;plate, garage number or VIN&gt;")
		return nil
	}

	// Exact hit first: show the full card.
	if terminalID, err := s.svc.Resolve(query); err == nil && !isAllDigits(query) {
		d := s.svc.Details(terminalID)
		s.reply(chatID, fmt.Sprintf(
			"✅ <b>Vehicle found</b>\n\n<b>Terminal ID:</b> <code>%s</code>\n<b>Plate:</b> %s\n<b>Name:</b> %s\n<b>Brand/model:</b> %s %s\n\n/state %s",
			terminalID, d.Plate, d.Name, d.Brand, d.Model, terminalID))
		return nil
	}

	results, err := s.svc.Search(query, 10)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		s.reply(chatID, fmt.Sprintf("❌ Nothing found for %q.", query))
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 <b>Matches for %q:</b>\n\n", query)
	for i, r := range results {
		label := r.Details.Plate
		if label == "" {
			label = r.Key
		}
		fmt.Fprintf(&b, "%d. <b>%s</b>\n   ID: <code>%s</code>\n   %s\n   /state %s\n\n",
			i+1, label, r.TerminalID, util.Truncate(r.Details.Name, 50), r.TerminalID)
	}
	if len(results) == 10 {
		b.WriteString("<i>First 10 matches shown. Refine the query.</i>")
	}
	s.reply(chatID, b.String())
	return nil
}

func (s *Server) handleReport(ctx context.Context, chatID int64, args string) error {
	days := s.defaultDays
	if args != "" {
		parsed, err := strconv.Atoi(args)
		if err != nil {
			return util.NewValidationError("day count must be a number, got %q", args)
		}
		days = parsed
	}

	fleet := s.svc.FleetIDs()
	status, err := s.api.Send(tgbotapi.NewMessage(chatID,
		fmt.Sprintf("📊 Generating a %d-day report for %d vehicles...", days, len(fleet))))
	if err != nil {
		return err
	}

	progress := func(completed, total int) {
		edit := tgbotapi.NewEditMessageText(chatID, status.MessageID,
			fmt.Sprintf("📊 Generating report... %d/%d vehicles", completed, total))
		if _, err := s.api.Send(edit); err != nil {
			s.lg.Debug("progress edit failed", "err", err)
		}
	}

	res, err := s.svc.GenerateReport(ctx, fleet, days, progress)
	if err != nil {
		return err
	}

	data, err := res.CSV()
	if err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  res.Filename(),
		Bytes: data,
	})
	doc.Caption = fmt.Sprintf("Fleet report, last %d days, %d vehicles", days, len(res.Rows))
	if _, err := s.api.Send(doc); err != nil {
		return err
	}

	if link, err := s.svc.ArchiveReport(ctx, res); err != nil {
		s.lg.Warn("report archiving failed", "err", err)
	} else if link != "" {
		s.reply(chatID, fmt.Sprintf("🗄 Archived copy: %s", link))
	}
	return nil
}

func (s *Server) handleStats(ctx context.Context, chatID int64) error {
	if !s.stats.Enabled() {
		s.reply(chatID, "Usage statistics are disabled.")
		return nil
	}

	sum, err := s.stats.Summarize(ctx)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("📈 <b>Usage statistics</b>\n\n")
	fmt.Fprintf(&b, "Commands total: %d\n", sum.TotalCommands)
	fmt.Fprintf(&b, "Errors total: %d\n", sum.TotalErrors)
	fmt.Fprintf(&b, "Unique users: %d\n", sum.UniqueUsers)
	fmt.Fprintf(&b, "Commands today: %d\n", sum.TodayCommands)
	if len(sum.TopCommands) > 0 {
		b.WriteString("\nTop commands:\n")
		for _, cc := range sum.TopCommands {
			fmt.Fprintf(&b, "  /%s — %d\n", cc.Command, cc.Count)
		}
	}
	if len(sum.Hourly) > 0 {
		b.WriteString("\nActivity, last 24h:\n")
		for _, hc := range sum.Hourly {
			fmt.Fprintf(&b, "  %02d:00 — %d\n", hc.Hour, hc.Count)
		}
	}
	s.reply(chatID, b.String())
	return nil
}

func (s *Server) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := s.api.Send(msg); err != nil {
		s.lg.Error(err, "failed to send reply", "chat", chatID)
	}
}

// userError renders an error for chat display: typed, bounded, no stack
// traces.
func userError(err error) string {
	var authErr *omnicomm.AuthError
	if errors.As(err, &authErr) {
		return "❌ Cannot authenticate with the telematics provider. Check the service credentials."
	}
	if util.IsValidation(err) {
		return "⚠️ " + util.Truncate(err.Error(), displayErrLimit)
	}
	return "❌ " + util.Truncate(err.Error(), displayErrLimit)
}

func isAllDigits(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

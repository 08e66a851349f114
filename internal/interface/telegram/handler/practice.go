// Package handler contains the bot's command and text handlers.
package handler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mathclub/daily-practice-bot/internal/application/command"
	"github.com/mathclub/daily-practice-bot/internal/domain/shared"
	"github.com/mathclub/daily-practice-bot/internal/infrastructure/external/telegram"
	botiface "github.com/mathclub/daily-practice-bot/internal/interface/telegram"
)

// Reply texts. Kept together so the bot's entire voice lives in one place.
const (
	replyWelcome = "Welcome back! Here is where you left off today."

	replyCorrect  = "Correct!"
	replyTryAgain = "Not quite. Try again!"

	replyDayComplete = "All done for today. Great work, see you tomorrow!"

	replyNoProblems = "There are no exercises scheduled for today. Check back later."

	replyUnavailable = "The practice service is temporarily unavailable. Please try again in a moment."

	replyBroken = "Something went wrong on our side. Please tell your supervisor if it keeps happening."
)

// failureReply picks the learner-facing line for an internal failure. Only
// transient failures earn a retry hint.
func failureReply(err error) string {
	if shared.IsInconsistency(err) {
		// Corrupted data needs an operator, not a retry.
		return replyBroken
	}
	if shared.IsRetryable(err) {
		return replyUnavailable
	}
	return replyBroken
}

// problemText renders a problem prompt as "Problem N of M:\nX * Y = ?".
func problemText(view *command.ProblemView) string {
	return fmt.Sprintf("Problem %d of %d:\n%s = ?", view.Position, view.Total, view.Display)
}

// ══════════════════════════════════════════════════════════════════════════════
// START HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// StartHandler serves /start and /today: it resolves the learner's current
// position and presents it.
type StartHandler struct {
	beginOrResume *command.BeginOrResumeHandler
	logger        *slog.Logger
}

// NewStartHandler creates the handler.
func NewStartHandler(beginOrResume *command.BeginOrResumeHandler, logger *slog.Logger) *StartHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StartHandler{beginOrResume: beginOrResume, logger: logger}
}

// Handle implements telegram.CommandHandler.
func (h *StartHandler) Handle(ctx context.Context, cmdCtx botiface.CommandContext) error {
	result, err := h.beginOrResume.Handle(ctx, command.BeginOrResumeCommand{
		LearnerID: cmdCtx.TelegramID,
	})
	if err != nil {
		return h.reportFailure(ctx, cmdCtx.Client, cmdCtx.ChatID, err)
	}

	switch result.Kind {
	case command.ResultNoProblems:
		_, err = cmdCtx.Client.SendText(ctx, cmdCtx.ChatID, replyNoProblems)
	case command.ResultDayComplete:
		_, err = cmdCtx.Client.SendText(ctx, cmdCtx.ChatID, replyDayComplete)
	default:
		text := replyWelcome + "\n\n" + problemText(result.Problem)
		_, err = cmdCtx.Client.SendText(ctx, cmdCtx.ChatID, text)
	}
	return err
}

func (h *StartHandler) reportFailure(ctx context.Context, client *telegram.Client, chatID int64, err error) error {
	h.logger.Error("begin or resume failed", "chat_id", chatID, "error", err)
	_, sendErr := client.SendText(ctx, chatID, failureReply(err))
	if sendErr != nil {
		return sendErr
	}
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// ANSWER HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// AnswerHandler treats every plain text message as an answer to the current
// problem.
type AnswerHandler struct {
	submitAnswer *command.SubmitAnswerHandler
	logger       *slog.Logger
}

// NewAnswerHandler creates the handler.
func NewAnswerHandler(submitAnswer *command.SubmitAnswerHandler, logger *slog.Logger) *AnswerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerHandler{submitAnswer: submitAnswer, logger: logger}
}

// Handle implements telegram.TextHandler.
func (h *AnswerHandler) Handle(ctx context.Context, textCtx botiface.TextContext) error {
	result, err := h.submitAnswer.Handle(ctx, command.SubmitAnswerCommand{
		LearnerID: textCtx.TelegramID,
		Text:      textCtx.Text,
	})
	if err != nil {
		h.logger.Error("submit answer failed", "chat_id", textCtx.ChatID, "error", err)
		_, sendErr := textCtx.Client.SendText(ctx, textCtx.ChatID, failureReply(err))
		if sendErr != nil {
			return sendErr
		}
		return err
	}

	var text string
	switch result.Kind {
	case command.ResultNoProblems:
		text = replyNoProblems

	case command.ResultDayComplete:
		if result.Graded && result.Correct {
			text = replyCorrect + "\n\n" + replyDayComplete
		} else {
			text = replyDayComplete
		}

	default:
		if result.Correct {
			text = replyCorrect + "\n\n" + problemText(result.Problem)
		} else {
			text = replyTryAgain + "\n\n" + problemText(result.Problem)
		}
	}

	_, err = textCtx.Client.SendText(ctx, textCtx.ChatID, text)
	return err
}

// ══════════════════════════════════════════════════════════════════════════════
// HELP HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// HelpHandler serves /help with static usage text.
type HelpHandler struct{}

// NewHelpHandler creates the handler.
func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

// Handle implements telegram.CommandHandler.
func (h *HelpHandler) Handle(ctx context.Context, cmdCtx botiface.CommandContext) error {
	text := "Daily practice bot.\n\n" +
		"/start - show today's current problem\n" +
		"/today - same as /start\n" +
		"/help - this message\n\n" +
		"Send a number to answer the current problem."
	_, err := cmdCtx.Client.SendText(ctx, cmdCtx.ChatID, text)
	return err
}

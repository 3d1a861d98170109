package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"trivia-chat-service/internal/domain"
)

// OnText handles a plain chat message: a pending question specification, a
// slash command, or an answer to the live round.
func (s *TriviaService) OnText(ctx context.Context, ev domain.TextEvent) []domain.Render {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return nil
	}

	if s.creation.take(creationKey{conversationID: ev.ConversationID, userID: ev.UserID}) {
		return s.completeCreation(ctx, ev, text)
	}

	if strings.HasPrefix(text, "/") {
		name, rest, _ := strings.Cut(text[1:], " ")
		name, _, _ = strings.Cut(name, "@")
		action, err := domain.ParseAction(name)
		if err != nil {
			return nil
		}
		return s.OnAction(ctx, domain.ActionEvent{
			ConversationID: ev.ConversationID,
			UserID:         ev.UserID,
			UserName:       ev.UserName,
			MessageID:      ev.MessageID,
			Action:         action,
			Data:           strings.TrimSpace(rest),
		})
	}

	ev.Text = text
	res, err := s.Submit(ctx, ev)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveRound) {
			return nil
		}
		s.logger.Error("submit failed",
			slog.String("conversation", ev.ConversationID),
			slog.String("user", ev.UserID),
			slog.Any("error", err))
		return []domain.Render{s.post(ev.ConversationID, ev.MessageID, msgGenericError)}
	}
	if !res.Credited {
		return nil
	}
	return []domain.Render{
		s.editRound(res.Round),
		s.post(ev.ConversationID, ev.MessageID,
			fmt.Sprintf("✅ %s answered: %s (+1 point)", ev.UserName, res.Credit.Answer)),
	}
}

// OnAction handles a control action such as a button press or command.
func (s *TriviaService) OnAction(ctx context.Context, ev domain.ActionEvent) []domain.Render {
	conv := ev.ConversationID
	if ev.Action.AdminOnly() && !s.IsAdmin(ev.UserID) {
		return s.failure(ev, domain.ErrUnauthorized)
	}
	switch ev.Action {
	case domain.ActionMenu:
		r := s.post(conv, ev.MessageID, msgWelcome)
		r.Buttons = menuButtons(s.IsAdmin(ev.UserID))
		return []domain.Render{r}

	case domain.ActionHelp:
		return []domain.Render{s.post(conv, ev.MessageID, msgHelp)}

	case domain.ActionRules:
		return []domain.Render{s.post(conv, ev.MessageID, msgRules)}

	case domain.ActionStart:
		res, err := s.Start(ctx, conv)
		if errors.Is(err, domain.ErrRoundInProgress) {
			prompt := s.post(conv, ev.MessageID, msgRoundInProgress)
			prompt.Buttons = conflictButtons(prompt.MessageID)
			s.sessions.GetOrCreate(conv).rememberPrompt(prompt.MessageID)
			return []domain.Render{prompt}
		}
		if err != nil {
			return s.failure(ev, err)
		}
		return s.roundStartRenders(conv, ev.MessageID, res)

	case domain.ActionSurrender:
		q, err := s.Surrender(ctx, conv)
		if err != nil {
			return s.failure(ev, err)
		}
		return []domain.Render{s.post(conv, ev.MessageID, RenderReveal(q))}

	case domain.ActionNext:
		res, err := s.Advance(ctx, conv)
		if err != nil {
			return s.failure(ev, err)
		}
		return s.roundStartRenders(conv, ev.MessageID, res)

	case domain.ActionStay:
		c, ok := s.sessions.Get(conv)
		if !ok || ev.Data == "" || !c.takePrompt(ev.Data) {
			return nil
		}
		return []domain.Render{{Kind: domain.RenderDelete, ConversationID: conv, MessageID: ev.Data}}

	case domain.ActionScore:
		snap, err := s.Round(conv)
		if err != nil {
			return s.failure(ev, err)
		}
		return []domain.Render{s.post(conv, ev.MessageID, fmt.Sprintf("📊 Current score: %d", len(snap.Credits)))}

	case domain.ActionPoints:
		total, err := s.Points(ctx, ev.UserID)
		if err != nil {
			return s.failure(ev, err)
		}
		return []domain.Render{s.post(conv, ev.MessageID, fmt.Sprintf("⭐ Your points: %d", total))}

	case domain.ActionTopScore:
		entries, err := s.TopScores(ctx)
		if err != nil {
			return s.failure(ev, err)
		}
		return []domain.Render{s.post(conv, ev.MessageID, renderTopScores(entries))}

	case domain.ActionStats:
		total, counts, err := s.Stats(ctx)
		if err != nil {
			return s.failure(ev, err)
		}
		return []domain.Render{s.post(conv, ev.MessageID, renderStats(total, counts))}

	case domain.ActionCreateQuestion:
		if ev.Data != "" {
			return s.createRenders(ctx, ev.ConversationID, ev.MessageID, ev.UserID, ev.Data)
		}
		if err := s.RequestCreate(ctx, conv, ev.UserID); err != nil {
			return s.failure(ev, err)
		}
		return []domain.Render{s.post(conv, ev.MessageID, fmt.Sprintf(msgCreationPrompt, s.opts.CancelKeyword))}

	case domain.ActionCancelCreation:
		if err := s.CancelCreate(ctx, conv, ev.UserID); err != nil {
			return s.failure(ev, err)
		}
		return []domain.Render{s.post(conv, ev.MessageID, msgCreationCancel)}
	}

	s.logger.Warn("unhandled action",
		slog.String("conversation", conv),
		slog.String("action", ev.Action.String()))
	return nil
}

func (s *TriviaService) completeCreation(ctx context.Context, ev domain.TextEvent, text string) []domain.Render {
	if s.isCancelKeyword(text) {
		return []domain.Render{s.post(ev.ConversationID, ev.MessageID, msgCreationCancel)}
	}
	return s.createRenders(ctx, ev.ConversationID, ev.MessageID, ev.UserID, text)
}

func (s *TriviaService) createRenders(ctx context.Context, conversationID, replyTo, userID, text string) []domain.Render {
	q, err := s.CreateQuestion(ctx, userID, text)
	if err != nil {
		s.logger.Warn("question creation rejected",
			slog.String("conversation", conversationID),
			slog.String("user", userID),
			slog.Any("error", err))
		return []domain.Render{s.post(conversationID, replyTo, errorMessage(err))}
	}
	return []domain.Render{s.post(conversationID, replyTo,
		fmt.Sprintf("✅ Question added with %d correct answers!", len(q.Answers)))}
}

func (s *TriviaService) isCancelKeyword(text string) bool {
	text = strings.TrimPrefix(strings.TrimSpace(text), "/")
	return strings.EqualFold(text, s.opts.CancelKeyword)
}

// roundStartRenders posts the cycle-reset notice when needed, then the question.
func (s *TriviaService) roundStartRenders(conversationID, replyTo string, res StartResult) []domain.Render {
	renders := make([]domain.Render, 0, 2)
	if res.DidReset {
		renders = append(renders, s.post(conversationID, replyTo, msgCycleReset))
	}
	renders = append(renders, domain.Render{
		Kind:           domain.RenderPost,
		ConversationID: conversationID,
		MessageID:      res.Round.MessageID,
		ReplyTo:        replyTo,
		Text:           RenderRound(res.Round, s.localNow()),
	})
	return renders
}

func (s *TriviaService) editRound(snap domain.RoundSnapshot) domain.Render {
	return domain.Render{
		Kind:           domain.RenderEdit,
		ConversationID: snap.ConversationID,
		MessageID:      snap.MessageID,
		Text:           RenderRound(snap, s.localNow()),
	}
}

func (s *TriviaService) post(conversationID, replyTo, text string) domain.Render {
	return domain.Render{
		Kind:           domain.RenderPost,
		ConversationID: conversationID,
		MessageID:      s.opts.NewMessageID(),
		ReplyTo:        replyTo,
		Text:           text,
	}
}

func (s *TriviaService) failure(ev domain.ActionEvent, err error) []domain.Render {
	if !isUserError(err) {
		s.logger.Error("action failed",
			slog.String("conversation", ev.ConversationID),
			slog.String("action", ev.Action.String()),
			slog.Any("error", err))
	}
	return []domain.Render{s.post(ev.ConversationID, ev.MessageID, errorMessage(err))}
}

func isUserError(err error) bool {
	return errors.Is(err, domain.ErrNoActiveRound) ||
		errors.Is(err, domain.ErrRoundInProgress) ||
		errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrMalformedCreationSpec) ||
		errors.Is(err, domain.ErrNoPendingCreation)
}

// errorMessage turns an error into the text shown to the requester.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoActiveRound):
		return msgNoActiveRound
	case errors.Is(err, domain.ErrRoundInProgress):
		return msgRoundInProgress
	case errors.Is(err, domain.ErrEmptyBank):
		return msgEmptyBank
	case errors.Is(err, domain.ErrUnauthorized):
		return msgUnauthorized
	case errors.Is(err, domain.ErrMalformedCreationSpec):
		return msgMalformed
	case errors.Is(err, domain.ErrNoPendingCreation):
		return msgNoPending
	case errors.Is(err, domain.ErrStoreUnavailable):
		return msgStoreUnavailable
	default:
		return msgGenericError
	}
}

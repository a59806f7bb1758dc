package service

import (
	"context"
	"errors"
	"strings"

	"ai-tutor-be/internal/dto"
	"ai-tutor-be/internal/pkg/logger"
	"ai-tutor-be/internal/repository/contract"
	"ai-tutor-be/pkg/apperror"
	"ai-tutor-be/pkg/events"
	"ai-tutor-be/pkg/speech"
	"ai-tutor-be/pkg/store"
	"ai-tutor-be/pkg/tutor"
	"ai-tutor-be/pkg/tutor/state"
)

const tutoringModule = "TUTOR"

type ITutoringService interface {
	Start(ctx context.Context, req *dto.StartTutoringRequest) (tutor.Result, error)
	Turn(ctx context.Context, req *dto.TutoringTurnRequest) (tutor.Result, error)
	Answer(ctx context.Context, req *dto.SubmitAnswerRequest) (tutor.Result, error)
	Advance(ctx context.Context, req *dto.AdvanceRequest) (tutor.Result, error)
	Get(ctx context.Context, id string) (*dto.TutoringSessionResponse, error)
	Delete(ctx context.Context, id string) error
}

type tutoringService struct {
	documents      contract.DocumentRepository
	sessions       contract.SessionRepository
	machine        *tutor.Machine
	speaker        *speech.Speaker
	eventPublisher events.Publisher
	logger         logger.ILogger
}

func NewTutoringService(
	documents contract.DocumentRepository,
	sessions contract.SessionRepository,
	machine *tutor.Machine,
	speaker *speech.Speaker,
	eventPublisher events.Publisher,
	log logger.ILogger,
) ITutoringService {
	return &tutoringService{
		documents:      documents,
		sessions:       sessions,
		machine:        machine,
		speaker:        speaker,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *tutoringService) Start(ctx context.Context, req *dto.StartTutoringRequest) (tutor.Result, error) {
	id := strings.TrimSpace(req.SessionId)
	if id == "" {
		id = tutor.NewSessionID()
	} else if cur, err := s.sessions.Get(ctx, id); err == nil && !state.State(cur.State).Terminal() {
		// fail before spending generation calls; Create re-checks under its lock
		return nil, apperror.InvalidState("session " + id + " is still in progress")
	}

	doc, err := s.documents.FindByID(ctx, req.DocumentId)
	if err != nil {
		return nil, err
	}

	session, res, err := s.machine.Start(ctx, id, doc)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.eventPublisher, s.logger, events.TutoringStarted(session.ID, doc.ID, len(session.Sections)))
	s.speak(ctx, req.Speak, res)
	return res, nil
}

func (s *tutoringService) Turn(ctx context.Context, req *dto.TutoringTurnRequest) (tutor.Result, error) {
	in := tutor.Input{Message: req.Message, Option: req.Option, Action: req.Action}
	return s.mutate(ctx, req.SessionId, req.Speak, func(cur *store.TutoringSession) (*store.TutoringSession, tutor.Result, error) {
		return s.machine.Handle(ctx, cur, in)
	})
}

func (s *tutoringService) Answer(ctx context.Context, req *dto.SubmitAnswerRequest) (tutor.Result, error) {
	return s.mutate(ctx, req.SessionId, req.Speak, func(cur *store.TutoringSession) (*store.TutoringSession, tutor.Result, error) {
		return s.machine.SubmitAnswer(ctx, cur, *req.Option)
	})
}

func (s *tutoringService) Advance(ctx context.Context, req *dto.AdvanceRequest) (tutor.Result, error) {
	return s.mutate(ctx, req.SessionId, req.Speak, func(cur *store.TutoringSession) (*store.TutoringSession, tutor.Result, error) {
		return s.machine.Advance(ctx, cur)
	})
}

type step func(cur *store.TutoringSession) (*store.TutoringSession, tutor.Result, error)

// mutate runs one turn under the session lock. The stored session only
// changes when the whole turn succeeded.
func (s *tutoringService) mutate(ctx context.Context, id string, speak bool, fn step) (tutor.Result, error) {
	var (
		res      tutor.Result
		flagged  []int
		finished bool
	)
	err := s.sessions.Mutate(ctx, id, func(cur *store.TutoringSession) (*store.TutoringSession, error) {
		next, r, err := fn(cur)
		if err != nil {
			return nil, err
		}
		res = r
		flagged = newlyFlagged(cur, next)
		finished = state.State(next.State).Terminal() && !state.State(cur.State).Terminal()
		return next, nil
	})
	if err != nil {
		if !errors.Is(err, apperror.ErrInvalidState) && !errors.Is(err, apperror.ErrSessionNotFound) && !errors.Is(err, apperror.ErrValidation) {
			s.logger.Error(tutoringModule, "Tutoring turn failed", map[string]interface{}{
				"session_id": id,
				"error":      err.Error(),
			})
		}
		return nil, err
	}

	if len(flagged) > 0 || finished {
		if snap, err := s.sessions.Get(ctx, id); err == nil {
			for _, idx := range flagged {
				publishEvent(ctx, s.eventPublisher, s.logger, events.SectionNeedsReview(id, idx, snap.Sections[idx].Title))
			}
			if finished {
				publishEvent(ctx, s.eventPublisher, s.logger, events.TutoringCompleted(id, tutor.NeedsReview(snap)))
			}
		}
	}

	s.speak(ctx, speak, res)
	return res, nil
}

func newlyFlagged(before, after *store.TutoringSession) []int {
	var out []int
	for i, p := range after.Progress {
		if p.NeedsReview && (i >= len(before.Progress) || !before.Progress[i].NeedsReview) {
			out = append(out, i)
		}
	}
	return out
}

func (s *tutoringService) Get(ctx context.Context, id string) (*dto.TutoringSessionResponse, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res := &dto.TutoringSessionResponse{
		SessionId:           sess.ID,
		DocumentId:          sess.DocumentID,
		State:               sess.State,
		CurrentSectionIndex: sess.CurrentSectionIndex,
		TotalSections:       len(sess.Sections),
		ExplanationAttempts: sess.ExplanationAttempts,
		PendingQuiz:         tutor.NewQuizView(sess.PendingQuiz),
		Progress:            sess.Progress,
		NeedsReview:         tutor.NeedsReview(sess),
		HistoryLength:       len(sess.History),
		CreatedAt:           sess.CreatedAt,
		UpdatedAt:           sess.UpdatedAt,
	}
	if sec, ok := sess.CurrentSection(); ok {
		res.CurrentSectionTitle = sec.Title
	}
	return res, nil
}

func (s *tutoringService) Delete(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

func (s *tutoringService) speak(ctx context.Context, requested bool, res tutor.Result) {
	if !requested || res == nil {
		return
	}
	turn := res.Base()
	turn.AudioURL = s.speaker.Speak(ctx, "tutoring", turn.Message)
}

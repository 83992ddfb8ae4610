package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"bi-ops-be/internal/constant"
	"bi-ops-be/internal/dto"
	"bi-ops-be/internal/entity"
	"bi-ops-be/internal/pkg/logger"
	"bi-ops-be/internal/repository/memory"
	"bi-ops-be/internal/repository/specification"
	"bi-ops-be/internal/repository/unitofwork"
	internalWS "bi-ops-be/internal/websocket"
	"bi-ops-be/pkg/analyst"
	"bi-ops-be/pkg/events"
	pktNats "bi-ops-be/pkg/nats"

	"github.com/google/uuid"
)

// ErrCommandInFlight is returned while a previous command for the same user
// is still being processed.
var ErrCommandInFlight = errors.New("a command is already being processed")

type IAnalystService interface {
	HandleCommand(ctx context.Context, userID uuid.UUID, command string) (*dto.CommandResponse, error)
	History(ctx context.Context, userID uuid.UUID) ([]dto.MessageDTO, error)
	State(ctx context.Context, userID uuid.UUID) analyst.BusinessState
	Snapshot(ctx context.Context, userID uuid.UUID) []internalWS.Update
}

type analystService struct {
	uowFactory       unitofwork.RepositoryFactory
	collaborator     analyst.Collaborator
	stateRepo        *memory.StateRepository
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewAnalystService(
	uowFactory unitofwork.RepositoryFactory,
	collaborator analyst.Collaborator,
	stateRepo *memory.StateRepository,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IAnalystService {
	return &analystService{
		uowFactory:       uowFactory,
		collaborator:     collaborator,
		stateRepo:        stateRepo,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
		inFlight:         make(map[uuid.UUID]struct{}),
	}
}

func (s *analystService) acquire(userID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[userID]; busy {
		return false
	}
	s.inFlight[userID] = struct{}{}
	return true
}

func (s *analystService) release(userID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, userID)
}

func (s *analystService) HandleCommand(ctx context.Context, userID uuid.UUID, command string) (*dto.CommandResponse, error) {
	if !s.acquire(userID) {
		return nil, ErrCommandInFlight
	}
	defer s.release(userID)

	uow := s.uowFactory.NewUnitOfWork(ctx)

	userMsg := &entity.Message{
		Id:        uuid.New(),
		UserId:    userID,
		Sender:    entity.SenderUser,
		Text:      command,
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, userMsg); err != nil {
		return nil, err
	}
	s.pushMessage(ctx, userID, userMsg)

	snippets, err := uow.FileSnippetRepository().FindAll(ctx,
		specification.ByUserID{UserID: userID},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	sources := make([]analyst.Source, 0, len(snippets))
	for _, snippet := range snippets {
		sources = append(sources, analyst.Source{Name: snippet.Name, Content: snippet.Content})
	}

	prev := s.stateRepo.Get(userID)

	next, err := s.collaborator.Analyze(ctx, analyst.Request{
		Command:       command,
		ContextBundle: analyst.BuildContextBundle(sources),
		RecordsLoaded: prev.RecordsLoaded,
	})
	if err != nil {
		// A broken AI turn never surfaces as a transport error: the console
		// drops back to a safe alert state and the turn is not recorded.
		s.logger.Error("AnalystService", "Collaborator call failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		fallback := analyst.Fallback(prev)
		s.stateRepo.Save(userID, fallback)
		s.pushState(ctx, userID, fallback)
		return &dto.CommandResponse{
			State: fallback,
			Message: dto.MessageDTO{
				Id:        uuid.New(),
				Sender:    string(entity.SenderSystem),
				Text:      fallback.Message,
				Timestamp: time.Now(),
			},
		}, nil
	}

	analyst.Reconcile(next, prev, len(sources))

	sysMsg := &entity.Message{
		Id:        uuid.New(),
		UserId:    userID,
		Sender:    entity.SenderSystem,
		Text:      next.Message,
		Chart:     next.ChartData,
		Table:     next.TableData,
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, sysMsg); err != nil {
		// The analysis already happened; losing the transcript row is logged
		// but does not fail the command.
		s.logger.Error("AnalystService", "Failed to persist system message", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	s.stateRepo.Save(userID, *next)
	celebrate := analyst.Celebrate(*next)

	s.pushMessage(ctx, userID, sysMsg)
	s.pushState(ctx, userID, *next)

	if s.eventPublisher != nil {
		event := events.BaseEvent{
			Type: constant.EventCommandProcessed,
			Data: map[string]interface{}{
				"user_id":      userID,
				"insight_type": string(next.InsightType),
				"confidence":   next.ConfidenceScore,
				"celebrate":    celebrate,
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("AnalystService", "Failed to publish COMMAND_PROCESSED event", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.CommandResponse{
		State:     *next,
		Message:   messageToDTO(sysMsg),
		Celebrate: celebrate,
	}, nil
}

func (s *analystService) History(ctx context.Context, userID uuid.UUID) ([]dto.MessageDTO, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByUserID{UserID: userID},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	if len(messages) == 0 {
		// First visit: greet without writing to the transcript.
		return []dto.MessageDTO{{
			Id:        uuid.New(),
			Sender:    string(entity.SenderSystem),
			Text:      constant.WelcomeMessage,
			Timestamp: time.Now(),
		}}, nil
	}

	out := make([]dto.MessageDTO, 0, len(messages))
	for _, msg := range messages {
		out = append(out, messageToDTO(msg))
	}
	return out, nil
}

func (s *analystService) State(ctx context.Context, userID uuid.UUID) analyst.BusinessState {
	return s.stateRepo.Get(userID)
}

// Snapshot assembles the connect-time frames for a websocket session:
// full history, file listing, and current state, in that order.
func (s *analystService) Snapshot(ctx context.Context, userID uuid.UUID) []internalWS.Update {
	updates := make([]internalWS.Update, 0, 3)

	history, err := s.History(ctx, userID)
	if err != nil {
		s.logger.Warn("AnalystService", "Snapshot history load failed", map[string]interface{}{"error": err.Error()})
	} else {
		updates = append(updates, internalWS.Update{Type: "history", Data: history})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	snippets, err := uow.FileSnippetRepository().FindAll(ctx,
		specification.ByUserID{UserID: userID},
		specification.OrderBy{Field: "name"},
	)
	if err != nil {
		s.logger.Warn("AnalystService", "Snapshot file load failed", map[string]interface{}{"error": err.Error()})
	} else {
		infos := make([]dto.FileInfoDTO, 0, len(snippets))
		for _, snippet := range snippets {
			infos = append(infos, dto.FileInfoDTO{
				Name:  snippet.Name,
				Rows:  snippet.TrueRowCount,
				Bytes: len(snippet.Content),
			})
		}
		updates = append(updates, internalWS.Update{Type: "files", Data: infos})
	}

	updates = append(updates, internalWS.Update{Type: "state", Data: s.stateRepo.Get(userID)})
	return updates
}

func (s *analystService) pushMessage(ctx context.Context, userID uuid.UUID, msg *entity.Message) {
	if s.publisherService == nil {
		return
	}
	update := internalWS.Update{Type: "message", Data: messageToDTO(msg)}
	if err := s.publisherService.PublishFeedUpdate(ctx, userID, update); err != nil {
		s.logger.Warn("AnalystService", "Failed to push message update", map[string]interface{}{"error": err.Error()})
	}
}

func (s *analystService) pushState(ctx context.Context, userID uuid.UUID, state analyst.BusinessState) {
	if s.publisherService == nil {
		return
	}
	update := internalWS.Update{Type: "state", Data: state}
	if err := s.publisherService.PublishFeedUpdate(ctx, userID, update); err != nil {
		s.logger.Warn("AnalystService", "Failed to push state update", map[string]interface{}{"error": err.Error()})
	}
}

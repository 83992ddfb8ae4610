package service

import (
	"context"
	"fmt"
	"time"

	"bi-ops-be/internal/constant"
	"bi-ops-be/internal/dto"
	"bi-ops-be/internal/entity"
	"bi-ops-be/internal/pkg/logger"
	"bi-ops-be/internal/repository/memory"
	"bi-ops-be/internal/repository/specification"
	"bi-ops-be/internal/repository/unitofwork"
	internalWS "bi-ops-be/internal/websocket"
	"bi-ops-be/pkg/events"
	"bi-ops-be/pkg/ingest"
	pktNats "bi-ops-be/pkg/nats"

	"github.com/google/uuid"
)

type IWorkspaceService interface {
	Upload(ctx context.Context, userID uuid.UUID, files []ingest.File) (*dto.UploadResponse, error)
	List(ctx context.Context, userID uuid.UUID) ([]dto.FileInfoDTO, error)
	Delete(ctx context.Context, userID uuid.UUID, name string) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type workspaceService struct {
	uowFactory       unitofwork.RepositoryFactory
	normalizer       *ingest.Normalizer
	stateRepo        *memory.StateRepository
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	logger           logger.ILogger
}

func NewWorkspaceService(
	uowFactory unitofwork.RepositoryFactory,
	normalizer *ingest.Normalizer,
	stateRepo *memory.StateRepository,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IWorkspaceService {
	return &workspaceService{
		uowFactory:       uowFactory,
		normalizer:       normalizer,
		stateRepo:        stateRepo,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           log,
	}
}

func (s *workspaceService) Upload(ctx context.Context, userID uuid.UUID, files []ingest.File) (*dto.UploadResponse, error) {
	snippets := s.normalizer.NormalizeBatch(ctx, files)
	summary := ingest.ComposeSummary(snippets)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	accepted := make([]dto.FileInfoDTO, 0, len(snippets))
	for _, snippet := range snippets {
		e := &entity.FileSnippet{
			Id:           uuid.New(),
			UserId:       userID,
			Name:         snippet.Name,
			Content:      snippet.Content,
			TrueRowCount: snippet.TrueRowCount,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}
		if err := uow.FileSnippetRepository().Upsert(ctx, e); err != nil {
			return nil, err
		}
		accepted = append(accepted, dto.FileInfoDTO{
			Name:  snippet.Name,
			Rows:  snippet.TrueRowCount,
			Bytes: len(snippet.Content),
		})
	}

	// Exactly one summary line per batch, whatever the outcome.
	msg := &entity.Message{
		Id:        uuid.New(),
		UserId:    userID,
		Sender:    entity.SenderSystem,
		Text:      summary,
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, msg); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	s.pushMessage(ctx, userID, msg)
	s.pushFileList(ctx, userID)

	if s.eventPublisher != nil && len(accepted) > 0 {
		event := events.BaseEvent{
			Type: constant.EventFilesUploaded,
			Data: map[string]interface{}{
				"user_id": userID,
				"count":   len(accepted),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("WorkspaceService", "Failed to publish FILES_UPLOADED event", map[string]interface{}{"error": err.Error()})
		}
	}

	return &dto.UploadResponse{Accepted: accepted, Summary: summary}, nil
}

func (s *workspaceService) List(ctx context.Context, userID uuid.UUID) ([]dto.FileInfoDTO, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	snippets, err := uow.FileSnippetRepository().FindAll(ctx,
		specification.ByUserID{UserID: userID},
		specification.OrderBy{Field: "name"},
	)
	if err != nil {
		return nil, err
	}

	infos := make([]dto.FileInfoDTO, 0, len(snippets))
	for _, snippet := range snippets {
		infos = append(infos, dto.FileInfoDTO{
			Name:  snippet.Name,
			Rows:  snippet.TrueRowCount,
			Bytes: len(snippet.Content),
		})
	}
	return infos, nil
}

func (s *workspaceService) Delete(ctx context.Context, userID uuid.UUID, name string) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.FileSnippetRepository().Delete(ctx, userID, name); err != nil {
		return err
	}

	msg := &entity.Message{
		Id:        uuid.New(),
		UserId:    userID,
		Sender:    entity.SenderSystem,
		Text:      fmt.Sprintf(constant.FileRemovedMessage, ingest.DisplayName(name)),
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, msg); err != nil {
		return err
	}

	remaining, err := uow.FileSnippetRepository().Count(ctx, specification.ByUserID{UserID: userID})
	if err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	// An empty workspace cannot claim loaded records.
	if remaining == 0 {
		state := s.stateRepo.Get(userID)
		state.RecordsLoaded = 0
		s.stateRepo.Save(userID, state)
		s.pushState(ctx, userID, state)
	}

	s.pushMessage(ctx, userID, msg)
	s.pushFileList(ctx, userID)
	return nil
}

func (s *workspaceService) Clear(ctx context.Context, userID uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.FileSnippetRepository().DeleteAllByUser(ctx, userID); err != nil {
		return err
	}

	msg := &entity.Message{
		Id:        uuid.New(),
		UserId:    userID,
		Sender:    entity.SenderSystem,
		Text:      constant.WorkspaceClearedMessage,
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, msg); err != nil {
		return err
	}

	if err := uow.Commit(); err != nil {
		return err
	}

	state := s.stateRepo.Get(userID)
	state.RecordsLoaded = 0
	s.stateRepo.Save(userID, state)
	s.pushState(ctx, userID, state)

	s.pushMessage(ctx, userID, msg)
	s.pushFileList(ctx, userID)

	if s.eventPublisher != nil {
		event := events.BaseEvent{
			Type:       constant.EventWorkspaceCleared,
			Data:       map[string]interface{}{"user_id": userID},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			s.logger.Warn("WorkspaceService", "Failed to publish WORKSPACE_CLEARED event", map[string]interface{}{"error": err.Error()})
		}
	}

	return nil
}

// Feed pushes are best effort; a dropped frame only delays the next sync.

func (s *workspaceService) pushMessage(ctx context.Context, userID uuid.UUID, msg *entity.Message) {
	if s.publisherService == nil {
		return
	}
	update := internalWS.Update{Type: "message", Data: messageToDTO(msg)}
	if err := s.publisherService.PublishFeedUpdate(ctx, userID, update); err != nil {
		s.logger.Warn("WorkspaceService", "Failed to push message update", map[string]interface{}{"error": err.Error()})
	}
}

func (s *workspaceService) pushFileList(ctx context.Context, userID uuid.UUID) {
	if s.publisherService == nil {
		return
	}
	infos, err := s.List(ctx, userID)
	if err != nil {
		s.logger.Warn("WorkspaceService", "Failed to load file list for push", map[string]interface{}{"error": err.Error()})
		return
	}
	update := internalWS.Update{Type: "files", Data: infos}
	if err := s.publisherService.PublishFeedUpdate(ctx, userID, update); err != nil {
		s.logger.Warn("WorkspaceService", "Failed to push file list", map[string]interface{}{"error": err.Error()})
	}
}

func (s *workspaceService) pushState(ctx context.Context, userID uuid.UUID, state interface{}) {
	if s.publisherService == nil {
		return
	}
	update := internalWS.Update{Type: "state", Data: state}
	if err := s.publisherService.PublishFeedUpdate(ctx, userID, update); err != nil {
		s.logger.Warn("WorkspaceService", "Failed to push state update", map[string]interface{}{"error": err.Error()})
	}
}

func messageToDTO(msg *entity.Message) dto.MessageDTO {
	return dto.MessageDTO{
		Id:        msg.Id,
		Sender:    string(msg.Sender),
		Text:      msg.Text,
		Chart:     msg.Chart,
		Table:     msg.Table,
		Timestamp: msg.CreatedAt,
	}
}

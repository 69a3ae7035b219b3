package api

import (
	"context"
	"errors"

	"reelscan/internal/editmap"
	"reelscan/internal/queue"
)

// QueueReader abstracts queue persistence interactions needed for API queries.
type QueueReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Message, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	GetByID(ctx context.Context, id int64) (*queue.Message, error)
}

// EditMapReader reads locally stored edit map status and results.
type EditMapReader interface {
	Status(ctx context.Context, editMapID string) (*editmap.StatusUpdate, error)
	LatestEditMap(ctx context.Context, editMapID string) (*editmap.EditMap, error)
}

// QueueService exposes read-only queue operations returning API DTOs.
type QueueService struct {
	store QueueReader
}

// NewQueueService constructs a QueueService around the provided reader.
func NewQueueService(store QueueReader) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store}
}

// List returns queue items filtered by status, newest first.
func (s *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]QueueItem, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	messages, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return SortQueueItemsNewestFirst(FromQueueMessages(messages)), nil
}

// Stats returns queue summary counts keyed by status string.
func (s *QueueService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeQueueStats(stats), nil
}

// Describe fetches a single queue item. A missing id returns nil, nil.
func (s *QueueService) Describe(ctx context.Context, id int64) (*QueueItem, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	msg, err := s.store.GetByID(ctx, id)
	if errors.Is(err, queue.ErrJobNotFound) {
		return nil, nil
	}
	if err != nil || msg == nil {
		return nil, err
	}
	dto := FromQueueMessage(msg)
	return &dto, nil
}

// DescribeEditMap returns the stored status and latest edit map for id. A
// missing id returns nil, nil.
func DescribeEditMap(ctx context.Context, reader EditMapReader, editMapID string) (*EditMapResponse, error) {
	update, err := reader.Status(ctx, editMapID)
	if errors.Is(err, queue.ErrEditMapNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	resp := &EditMapResponse{Status: FromStatusUpdate(editMapID, *update)}
	result, err := reader.LatestEditMap(ctx, editMapID)
	switch {
	case err == nil:
		resp.EditMap = result
	case !errors.Is(err, queue.ErrEditMapNotFound):
		return nil, err
	}
	return resp, nil
}

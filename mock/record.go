package mock

import (
	"context"

	"github.com/ChallX/gamedex"
)

var _ gamedex.RecordService = (*RecordService)(nil)

// RecordService is a mock implementation of gamedex.RecordService.
type RecordService struct {
	CreateRecordFn       func(ctx context.Context, rec *gamedex.GameRecord) error
	UpdateRecordFn       func(ctx context.Context, number int, rec *gamedex.GameRecord) error
	FindRecordByNumberFn func(ctx context.Context, number int) (*gamedex.GameRecord, error)
	FindRecordsFn        func(ctx context.Context, filter gamedex.RecordFilter) ([]*gamedex.GameRecord, error)
}

func (s *RecordService) CreateRecord(ctx context.Context, rec *gamedex.GameRecord) error {
	return s.CreateRecordFn(ctx, rec)
}

func (s *RecordService) UpdateRecord(ctx context.Context, number int, rec *gamedex.GameRecord) error {
	return s.UpdateRecordFn(ctx, number, rec)
}

func (s *RecordService) FindRecordByNumber(ctx context.Context, number int) (*gamedex.GameRecord, error) {
	return s.FindRecordByNumberFn(ctx, number)
}

func (s *RecordService) FindRecords(ctx context.Context, filter gamedex.RecordFilter) ([]*gamedex.GameRecord, error) {
	return s.FindRecordsFn(ctx, filter)
}

package logic

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeromicro/go-zero/core/logx"

	"gridpulse-api/internal/svc"
	"gridpulse-api/internal/types"
	"gridpulse-api/pkg/backfill"
)

// ErrBackfillUnavailable is returned when the orchestrator chain (database,
// weather source, estimator) is not fully configured.
var ErrBackfillUnavailable = errors.New("backfill unavailable: postgres, weather and estimator config are required")

type BackfillLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewBackfillLogic(ctx context.Context, svcCtx *svc.ServiceContext) *BackfillLogic {
	return &BackfillLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Backfill runs one bounded pass of generation backfill and reports counts.
// Callers re-invoke until IsComplete.
func (l *BackfillLogic) Backfill(req *types.BackfillRequest) (*types.BackfillResponse, error) {
	if l.svcCtx.Orchestrator == nil {
		return nil, ErrBackfillUnavailable
	}
	if req.Month < 0 || req.Month > 12 {
		return nil, fmt.Errorf("invalid month %d", req.Month)
	}
	if req.Year < 0 {
		return nil, fmt.Errorf("invalid year %d", req.Year)
	}

	batchSize := l.svcCtx.Config.Backfill.DefaultBatchSize
	if req.BatchSize != nil {
		batchSize = *req.BatchSize
	}

	result, err := l.svcCtx.Orchestrator.Run(l.ctx, backfill.Request{
		Filter:    backfill.Filter{Year: req.Year, Month: req.Month},
		BatchSize: batchSize,
	})
	if err != nil {
		return nil, err
	}

	l.Infof("backfill run done: updated=%d dates=%d remaining=%d complete=%v errors=%d",
		result.RecordsUpdated, result.DatesProcessed, result.RemainingRecords,
		result.IsComplete, len(result.Errors))

	return &types.BackfillResponse{
		Success:          true,
		RecordsUpdated:   result.RecordsUpdated,
		DatesProcessed:   result.DatesProcessed,
		RemainingRecords: result.RemainingRecords,
		IsComplete:       result.IsComplete,
		Errors:           result.Errors,
	}, nil
}

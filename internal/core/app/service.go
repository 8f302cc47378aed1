package app

import (
	"context"
	"strings"

	"modcheck/internal/core/errors"
	"modcheck/internal/core/ports"
)

type analysisService struct {
	app *App
}

var _ ports.AnalysisService = (*analysisService)(nil)

func NewAnalysisService(app *App) ports.AnalysisService {
	return &analysisService{app: app}
}

func (a *App) AnalysisService() ports.AnalysisService {
	return NewAnalysisService(a)
}

// Analyze falls back to the configured snapshot when the request names none.
func (s *analysisService) Analyze(ctx context.Context, req ports.AnalyzeRequest) (ports.AnalyzeResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.AnalyzeResult{}, err
	}
	if s.app == nil || s.app.Config == nil {
		return ports.AnalyzeResult{}, errors.New(errors.CodeInternal, "app is not initialized")
	}
	path := strings.TrimSpace(req.SnapshotPath)
	if path == "" {
		path = s.app.Config.Snapshot
	}
	result, err := s.app.Analyze(ctx, path)
	if err != nil {
		return ports.AnalyzeResult{}, errors.AddContext(err, errors.CtxOperation, "analyze")
	}
	return result, nil
}

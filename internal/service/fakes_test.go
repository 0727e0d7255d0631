package service

import (
	"context"
	"sync"

	"shoptracker/internal/domain"
	"shoptracker/internal/jobs"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) kinds() []domain.ChangeKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.ChangeKind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

type recordingJobs struct {
	alerts []jobs.StockAlertPayload
}

func (j *recordingJobs) EnqueueStockAlert(_ context.Context, payload jobs.StockAlertPayload) error {
	j.alerts = append(j.alerts, payload)
	return nil
}

type countingMetrics struct {
	sales     int
	conflicts int
}

func (m *countingMetrics) SaleRecorded()  { m.sales++ }
func (m *countingMetrics) StockConflict() { m.conflicts++ }

package recurrence

import (
	"context"
	"fmt"
	"time"

	"notecraft/backend"
	"notecraft/internal/edit"
	"notecraft/internal/markdown"
	"notecraft/internal/utils"
)

// Result describes one Run.
type Result struct {
	// Ran is false when the document was already visited today.
	Ran       bool
	LastVisit time.Time
	Batch     *edit.Batch
	Text      string
}

// Service runs the engine against stored documents.
type Service struct {
	LastVisits backend.LastVisitStore
	Documents  backend.DocumentStore
	Options    markdown.Options
	// Now returns the current time. Nil means time.Now.
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Run resets the document under key when its last visit was before today
// and records the visit. A stale document fails the run without retry and
// leaves the last visit untouched.
func (s *Service) Run(ctx context.Context, key string) (*Result, error) {
	now := s.now()
	stored, err := s.LastVisits.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read last visit: %w", err)
	}
	lastVisit, ok := NeedsReset(stored, now)
	if !ok {
		utils.Debugf("%s already visited today", key)
		return &Result{LastVisit: *stored}, nil
	}

	snapshot, err := s.Documents.Read(ctx)
	if err != nil {
		return nil, err
	}
	opts := s.Options
	opts.Now = now
	doc := markdown.ParseDocument(snapshot, opts)
	b := NewEngine(opts.Due).Reset(doc, lastVisit, now)

	res := &Result{Ran: true, LastVisit: lastVisit, Batch: b, Text: snapshot}
	if !b.Empty() {
		out, err := s.Documents.Apply(ctx, snapshot, b)
		if err != nil {
			return nil, fmt.Errorf("failed to apply reset: %w", err)
		}
		res.Text = out
	}
	utils.Debugf("reset %s since %s: batch %s with %d edits", key, lastVisit.Format(time.RFC3339), b.ID, b.Len())

	if err := s.LastVisits.Set(ctx, key, now); err != nil {
		return nil, fmt.Errorf("failed to store last visit: %w", err)
	}
	return res, nil
}

// SetLastVisit overrides the stored last visit of key.
func (s *Service) SetLastVisit(ctx context.Context, key string, t time.Time) error {
	return s.LastVisits.Set(ctx, key, t)
}

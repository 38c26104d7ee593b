// services/reports.go - Submission, confirmation, and refresh flows
package services

import (
	"context"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"civicsync/models"
	"civicsync/remote"
)

// ReportService owns the user-initiated report flows: submit (with offline
// fallback), confirm, and the full refresh that reconciles local and server
// state.
type ReportService struct {
	api          remote.API
	queue        *DurableQueue
	state        *StateStore
	session      *Session
	notifier     *Notifier
	achievements *AchievementService
	validate     *validator.Validate
}

// NewReportService wires the report flows.
func NewReportService(api remote.API, queue *DurableQueue, state *StateStore, session *Session, notifier *Notifier, achievements *AchievementService) *ReportService {
	return &ReportService{
		api:          api,
		queue:        queue,
		state:        state,
		session:      session,
		notifier:     notifier,
		achievements: achievements,
		validate:     validator.New(),
	}
}

// Submit tries a direct remote create; when the network lets the user down it
// falls back to the durable queue and projects an optimistic placeholder, so
// the submission still reads as a success. Only ErrStorageExhausted reaches
// the caller from the fallback path.
func (r *ReportService) Submit(ctx context.Context, payload models.ReportSubmission) (models.Report, error) {
	if err := r.validate.Struct(payload); err != nil {
		return models.Report{}, err
	}
	if !r.session.Active() {
		return models.Report{}, ErrNoSession
	}

	report, err := r.api.CreateReport(ctx, payload, uuid.NewString())
	if err == nil {
		r.state.AddReport(*report)
		go r.runAchievements()
		return *report, nil
	}

	log.Printf("⚠️ Direct submission failed, queueing locally: %v", err)
	entry, qErr := r.queue.Enqueue(payload)
	if qErr != nil {
		// ErrStorageExhausted included: the submission is lost and the
		// caller has to hear about it
		return models.Report{}, qErr
	}

	placeholder := entry.AsPlaceholder()
	r.state.AddReport(placeholder)
	return placeholder, nil
}

// Confirm adds the session user's confirmation to a report and feeds any
// service-side notifications into the outbox.
func (r *ReportService) Confirm(ctx context.Context, reportID string) (models.Report, error) {
	if !r.session.Active() {
		return models.Report{}, ErrNoSession
	}

	result, err := r.api.ConfirmReport(ctx, reportID)
	if err != nil {
		return models.Report{}, err
	}

	r.state.AddReport(result.Report)
	for _, n := range result.Notifications {
		r.notifier.Publish(n)
	}
	go r.runAchievements()
	return result.Report, nil
}

// Refresh pulls the server truth, merges it with whatever is still queued,
// and re-evaluates achievements. Called on startup and login.
func (r *ReportService) Refresh(ctx context.Context) error {
	if !r.session.Active() {
		return ErrNoSession
	}

	user, err := r.api.GetCurrentUser(ctx)
	if err != nil {
		return err
	}
	r.state.SetUser(user)

	server, err := r.api.GetReports(ctx)
	if err != nil {
		return err
	}
	pending, err := r.queue.ListAll()
	if err != nil {
		return err
	}
	r.state.SetReports(MergeReports(pending, server))

	badges, err := r.api.ListBadges(ctx)
	if err != nil {
		return err
	}
	r.state.SetBadges(badges)

	settings, err := r.api.GetGamificationSettings(ctx)
	if err != nil {
		return err
	}
	r.state.SetSettings(*settings)

	go r.runAchievements()
	return nil
}

func (r *ReportService) runAchievements() {
	if err := r.achievements.Run(context.Background()); err != nil {
		log.Printf("❌ Achievement check failed: %v", err)
	}
}

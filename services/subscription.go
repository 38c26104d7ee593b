// services/subscription.go - Optimistic subscription toggle
package services

import (
	"context"
	"errors"

	"civicsync/remote"
)

// ErrReportNotFound means the toggle referenced a report the state store does
// not hold.
var ErrReportNotFound = errors.New("report not found")

// SubscriptionService implements the canonical optimistic-write pattern:
// apply locally first, confirm remotely, roll both entities back on failure.
type SubscriptionService struct {
	api   remote.API
	state *StateStore
}

// NewSubscriptionService wires the toggle flow.
func NewSubscriptionService(api remote.API, state *StateStore) *SubscriptionService {
	return &SubscriptionService{api: api, state: state}
}

// Toggle flips the session user's subscription to a report. The local change
// lands immediately; the remote call carries only the opaque user id so a
// concurrent achievement commit cannot be clobbered by a stale user object.
// On failure both the user and the report return to their exact pre-toggle
// snapshots and the error propagates.
func (s *SubscriptionService) Toggle(ctx context.Context, reportID string) (*remote.SubscriptionResult, error) {
	user := s.state.User()
	if user == nil {
		return nil, ErrNoSession
	}
	report, ok := s.state.Report(reportID)
	if !ok {
		return nil, ErrReportNotFound
	}

	userSnapshot := user.Clone()
	reportSnapshot := report

	// optimistic local flip
	user.SubscribedReportIDs = toggleMembership(user.SubscribedReportIDs, reportID)
	s.state.SetUser(user)

	result, err := s.api.ToggleSubscription(ctx, reportID, user.ID)
	if err != nil {
		s.state.SetUser(userSnapshot)
		s.state.AddReport(reportSnapshot)
		return nil, err
	}

	// server-returned canonical objects win
	s.state.SetUser(&result.User)
	s.state.AddReport(result.Report)
	return result, nil
}

func toggleMembership(ids []string, id string) []string {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return append(ids, id)
}

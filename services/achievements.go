// services/achievements.go - Badge evaluation and the paced award loop
package services

import (
	"context"
	"log"
	"time"

	"civicsync/models"
	"civicsync/remote"
)

// DefaultRevealDelay paces sequential multi-badge reveals so the UI shows one
// award at a time instead of a burst.
const DefaultRevealDelay = 6500 * time.Millisecond

// AchievementService grants badges and points against fresh user snapshots.
// Every state-changing action triggers Run; the achievements membership check
// makes repeated invocation idempotent.
type AchievementService struct {
	api      remote.API
	state    *StateStore
	notifier *Notifier

	revealDelay time.Duration
	sleep       func(time.Duration)

	// serializes award loops so overlapping triggers queue up instead of
	// double-awarding against stale snapshots
	running chan struct{}
}

// NewAchievementService creates the service. revealDelay <= 0 selects the
// default cadence.
func NewAchievementService(api remote.API, state *StateStore, notifier *Notifier, revealDelay time.Duration) *AchievementService {
	if revealDelay <= 0 {
		revealDelay = DefaultRevealDelay
	}
	s := &AchievementService{
		api:         api,
		state:       state,
		notifier:    notifier,
		revealDelay: revealDelay,
		sleep:       time.Sleep,
		running:     make(chan struct{}, 1),
	}
	return s
}

// NextBadge is the pure evaluator: scan badges in declared order and return
// the first active, not-yet-earned badge whose criteria the snapshot meets,
// or nil.
func NextBadge(user *models.User, reports []models.Report, badges []models.Badge) *models.Badge {
	for i := range badges {
		badge := badges[i]
		if !badge.IsActive || user.HasAchievement(badge.ID) {
			continue
		}
		if criteriaMet(badge.Criteria, user, reports) {
			return &badge
		}
	}
	return nil
}

func criteriaMet(criteria models.BadgeCriteria, user *models.User, reports []models.Report) bool {
	switch criteria.Type {
	case models.CriteriaReportCount:
		count := 0
		for _, r := range reports {
			if criteria.CategoryFilter != "" && r.Category != criteria.CategoryFilter {
				continue
			}
			count++
		}
		return count >= criteria.Value
	case models.CriteriaConfirmationCount:
		return user.ReportsConfirmed >= criteria.Value
	case models.CriteriaPointThreshold:
		return user.Points >= criteria.Value
	default:
		return false
	}
}

// PendingAwards returns, in award order, every badge the snapshot would earn
// if the loop ran to completion. Each simulated award adds earnPoints, so a
// badge's points can tip the next point_threshold badge over its line.
func PendingAwards(user *models.User, reports []models.Report, badges []models.Badge, earnPoints int) []models.Badge {
	snapshot := user.Clone()
	var awards []models.Badge
	for {
		badge := NextBadge(snapshot, reports, badges)
		if badge == nil {
			return awards
		}
		snapshot.Achievements = append(snapshot.Achievements, badge.ID)
		snapshot.Points += earnPoints
		awards = append(awards, *badge)
	}
}

// Run executes one full award cycle: fetch a fresh user snapshot, then
// repeatedly evaluate, grant, notify, and wait out the reveal delay until no
// badge qualifies. The user is persisted remotely once at the end, only when
// something was awarded. A second Run waits for the first to finish.
func (s *AchievementService) Run(ctx context.Context) error {
	s.running <- struct{}{}
	defer func() { <-s.running }()

	user, err := s.api.GetCurrentUser(ctx)
	if err != nil {
		return err
	}

	badges := s.state.Badges()
	if len(badges) == 0 {
		if badges, err = s.api.ListBadges(ctx); err != nil {
			return err
		}
		s.state.SetBadges(badges)
	}

	reports := s.state.Reports()
	earnPoints := s.state.Settings().EarnBadgePoints()

	awarded := 0
	for {
		badge := NextBadge(user, reports, badges)
		if badge == nil {
			break
		}

		user.Achievements = append(user.Achievements, badge.ID)
		user.Points += earnPoints
		awarded++
		s.state.SetUser(user)

		log.Printf("🏅 Badge earned: %s (+%d points)", badge.Name, earnPoints)
		s.notifier.Publish(models.Notification{
			Kind:    models.NotificationBadgeAwarded,
			Title:   "Badge earned: " + badge.Name,
			Body:    badge.Description,
			BadgeID: badge.ID,
		})

		// pace the next reveal; the award above is already committed locally
		s.sleep(s.revealDelay)
	}

	if awarded == 0 {
		return nil
	}

	updated, err := s.api.UpdateUser(ctx, user)
	if err != nil {
		// In-memory state keeps the awards; the next full refresh overwrites
		// it if the server never saw them.
		log.Printf("❌ Failed to persist %d award(s): %v", awarded, err)
		return nil
	}
	s.state.SetUser(updated)
	return nil
}

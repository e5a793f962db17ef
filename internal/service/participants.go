package service

import (
	"context"
	"fmt"

	"github.com/mentormatch/mentor-match-go/internal/model"
	"github.com/mentormatch/mentor-match-go/internal/repository"
)

// withParticipants resolves the requester and recipient of every session
// with one profile query.
func withParticipants(ctx context.Context, profiles repository.ProfileRepository, sessions []model.Session) ([]model.SessionView, error) {
	views := make([]model.SessionView, len(sessions))
	if len(sessions) == 0 {
		return views, nil
	}

	seen := make(map[string]bool, len(sessions)*2)
	var ids []string
	for _, s := range sessions {
		for _, id := range []string{s.FromProfileID, s.ToProfileID} {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	summaries, err := profiles.ListSummaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	byID := make(map[string]*model.ParticipantSummary, len(summaries))
	for i := range summaries {
		byID[summaries[i].ID] = &summaries[i]
	}

	for i, s := range sessions {
		views[i] = model.SessionView{
			Session:     s,
			FromProfile: byID[s.FromProfileID],
			ToProfile:   byID[s.ToProfileID],
		}
	}
	return views, nil
}

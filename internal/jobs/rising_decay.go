// Package jobs holds the two scheduled sweeps (C11): a daily decay of every
// rising-tier score, and a periodic evergreen recompute over posts. Both are
// grounded on a robfig/cron/v3 schedule wired up in cmd/server.
package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"feedranker/internal/profilestore"
)

const DecayFactor = 0.9

// RisingDecayJob runs once daily at 03:00, pulling every rising-tier score
// toward zero so that creators/interests a user has stopped engaging with
// fade out of contention even without a negative signal.
type RisingDecayJob struct {
	profiles *profilestore.Store
	log      zerolog.Logger
}

func NewRisingDecayJob(profiles *profilestore.Store, log zerolog.Logger) *RisingDecayJob {
	return &RisingDecayJob{profiles: profiles, log: log.With().Str("job", "rising-decay").Logger()}
}

func (j *RisingDecayJob) Run(ctx context.Context) {
	now := time.Now().UnixMilli()
	profiles, err := j.profiles.AllProfiles(ctx)
	if err != nil {
		j.log.Warn().Err(err).Msg("rising decay: load profiles failed")
		return
	}

	touched := 0
	for _, profile := range profiles {
		changed := false
		for _, n := range profile.RisingInterests {
			n.Score *= DecayFactor
			n.LastUpdated = now
			changed = true
		}
		for _, cat := range profile.TopInterests {
			for _, s := range cat.RisingSubs {
				s.Score *= DecayFactor
				s.LastUpdated = now
				changed = true
			}
		}
		for _, cat := range profile.RisingInterests {
			for _, s := range cat.RisingSubs {
				s.Score *= DecayFactor
				s.LastUpdated = now
				changed = true
			}
		}
		for _, c := range profile.CreatorsInterests.RisingCreators {
			c.Score *= DecayFactor
			c.LastUpdated = now
			changed = true
		}

		if !changed {
			continue
		}
		if err := j.profiles.SaveProfile(ctx, profile); err != nil {
			j.log.Warn().Err(err).Str("user_id", profile.UserID.Hex()).Msg("rising decay: save failed")
			continue
		}
		touched++
	}
	j.log.Info().Int("profiles_touched", touched).Msg("rising decay sweep complete")
}

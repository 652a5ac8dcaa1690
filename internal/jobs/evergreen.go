package jobs

import (
	"context"

	"github.com/rs/zerolog"

	"feedranker/internal/poststore"
)

const MinRawForEvergreen = 1000.0
const evergreenVelocityRatio = 0.01

// EvergreenJob runs every two hours, flagging posts whose velocity has
// settled into a long, slow tail as evergreen content worth keeping in
// rotation rather than letting trending decay bury them.
type EvergreenJob struct {
	posts *poststore.Store
	log   zerolog.Logger
}

func NewEvergreenJob(posts *poststore.Store, log zerolog.Logger) *EvergreenJob {
	return &EvergreenJob{posts: posts, log: log.With().Str("job", "evergreen-recompute").Logger()}
}

func (j *EvergreenJob) Run(ctx context.Context) {
	candidates, err := j.posts.FindEvergreenCandidates(ctx, MinRawForEvergreen)
	if err != nil {
		j.log.Warn().Err(err).Msg("evergreen recompute: load candidates failed")
		return
	}

	touched := 0
	for _, post := range candidates {
		ratio := 0.0
		if post.HistoricalVelocityEMA != 0 {
			ratio = post.ShortTermVelocityEMA / post.HistoricalVelocityEMA
		}
		wasEvergreen := post.IsEvergreen
		post.IsEvergreen = ratio < evergreenVelocityRatio
		if post.IsEvergreen && !wasEvergreen {
			post.IsRising = false
		}
		if post.IsEvergreen == wasEvergreen {
			continue
		}
		if err := j.posts.Save(ctx, post); err != nil {
			j.log.Warn().Err(err).Str("post_id", post.IDHex()).Msg("evergreen recompute: save failed")
			continue
		}
		touched++
	}
	j.log.Info().Int("posts_touched", touched).Msg("evergreen recompute complete")
}

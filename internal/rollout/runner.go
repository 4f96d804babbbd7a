// Package rollout runs batches of episodes across independent
// environments and summarises them with the environment diagnostics.
package rollout

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"github.com/zeusync/pushreach/internal/config"
	"github.com/zeusync/pushreach/internal/core/events/bus"
	"github.com/zeusync/pushreach/internal/core/observability/log"
	"github.com/zeusync/pushreach/internal/env"
	"github.com/zeusync/pushreach/pkg/concurrent"
)

// EventEpisode is published after every finished episode.
const EventEpisode = "rollout.episode"

// EpisodeEvent is the payload of EventEpisode.
type EpisodeEvent struct {
	Worker    int
	Index     int
	EpisodeID string
	Return    float64
	Success   bool
}

// EnvFactory builds one environment per worker.
type EnvFactory func(worker int) (*env.Env, error)

// Episode is one finished rollout.
type Episode struct {
	ID      string   `json:"id"`
	Worker  int      `json:"worker"`
	Return  float64  `json:"return"`
	Path    env.Path `json:"path"`
	Success bool     `json:"success"`
}

// Result is everything a Run produced.
type Result struct {
	Policy      string        `json:"policy"`
	Episodes    []Episode     `json:"episodes"`
	Diagnostics []env.Stat    `json:"diagnostics"`
	Elapsed     time.Duration `json:"elapsed"`
}

// SuccessRate is the fraction of episodes whose final step succeeded.
func (r Result) SuccessRate() float64 {
	if len(r.Episodes) == 0 {
		return 0
	}
	n := 0
	for _, ep := range r.Episodes {
		if ep.Success {
			n++
		}
	}
	return float64(n) / float64(len(r.Episodes))
}

// Runner executes episodes on a bounded set of workers. Each worker owns
// its environment for the whole run.
type Runner struct {
	factory EnvFactory
	policy  Policy
	cfg     config.RolloutConfig
	seed    uint64
	logger  log.Log
	events  bus.EventBus
}

type Option func(*Runner)

func WithLogger(l log.Log) Option {
	return func(r *Runner) { r.logger = l }
}

func WithEventBus(b bus.EventBus) Option {
	return func(r *Runner) { r.events = b }
}

// WithSeed seeds the per-worker policy sources. Worker w uses seed+w.
func WithSeed(seed uint64) Option {
	return func(r *Runner) { r.seed = seed }
}

func NewRunner(factory EnvFactory, policy Policy, cfg config.RolloutConfig, opts ...Option) *Runner {
	r := &Runner{
		factory: factory,
		policy:  policy,
		cfg:     cfg,
		seed:    uint64(time.Now().UnixNano()),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.NewNop()
	}
	r.logger = r.logger.With(log.String("component", "rollout"), log.String("policy", policy.Name()))
	return r
}

// Run plays cfg.Episodes episodes of cfg.Horizon steps. Cancelling ctx
// stops every worker at its next step.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	n := r.cfg.Episodes
	if n <= 0 {
		return Result{}, ErrNoEpisodes
	}
	workers := r.cfg.Workers
	if workers <= 0 || workers > n {
		workers = n
	}

	start := time.Now()
	episodes := make([]Episode, n)
	ids := make([]int, workers)
	for i := range ids {
		ids[i] = i
	}

	r.logger.Info("rollout started",
		log.Int("episodes", n),
		log.Int("workers", workers),
		log.Int("horizon", r.cfg.Horizon),
	)

	err := concurrent.ForEach(ctx, ids, workers, func(ctx context.Context, _ int, w int) error {
		e, err := r.factory(w)
		if err != nil {
			return fmt.Errorf("worker %d: build env: %w", w, err)
		}
		src := rand.NewSource(r.seed + uint64(w))
		for idx := w; idx < n; idx += workers {
			ep, err := r.episode(ctx, e, src)
			if err != nil {
				return fmt.Errorf("worker %d episode %d: %w", w, idx, err)
			}
			ep.Worker = w
			episodes[idx] = ep
			r.publish(EpisodeEvent{Worker: w, Index: idx, EpisodeID: ep.ID, Return: ep.Return, Success: ep.Success})
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	paths := make([]env.Path, n)
	for i, ep := range episodes {
		paths[i] = ep.Path
	}
	res := Result{
		Policy:      r.policy.Name(),
		Episodes:    episodes,
		Diagnostics: env.GetDiagnostics(paths, r.cfg.Prefix),
		Elapsed:     time.Since(start),
	}
	r.logger.Info("rollout finished",
		log.Duration("elapsed", res.Elapsed),
		log.Float64("success_rate", res.SuccessRate()),
	)
	return res, nil
}

func (r *Runner) episode(ctx context.Context, e *env.Env, src rand.Source) (Episode, error) {
	obs, err := e.Reset()
	if err != nil {
		return Episode{}, err
	}
	ep := Episode{
		ID:   e.EpisodeID(),
		Path: env.Path{Infos: make([]env.Info, 0, r.cfg.Horizon)},
	}
	for t := 0; t < r.cfg.Horizon; t++ {
		if err := ctx.Err(); err != nil {
			return Episode{}, err
		}
		res, err := e.Step(r.policy.Act(obs, src))
		if err != nil {
			return Episode{}, err
		}
		ep.Return += res.Reward
		ep.Path.Infos = append(ep.Path.Infos, res.Info)
		obs = res.Observation
	}
	if k := len(ep.Path.Infos); k > 0 {
		ep.Success = ep.Path.Infos[k-1].Success
	}
	return ep, nil
}

func (r *Runner) publish(ev EpisodeEvent) {
	if r.events == nil {
		return
	}
	if err := r.events.Publish(bus.NewEvent(EventEpisode, "rollout", ev)); err != nil {
		r.logger.Warn("episode handler failed", log.Error(err))
	}
}

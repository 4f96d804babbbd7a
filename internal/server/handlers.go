package server

import (
	"context"
	"errors"

	"github.com/zeusync/pushreach/internal/core/protocol"
	"github.com/zeusync/pushreach/internal/core/storage"
	"github.com/zeusync/pushreach/internal/env"
)

type ack struct {
	OK bool `json:"ok"`
}

// dispatch runs one request against the session's environment.
func dispatch(ctx context.Context, session *Session, req protocol.Request) (any, error) {
	e := session.Env
	switch req.Method {
	case protocol.MethodReset:
		return e.Reset()

	case protocol.MethodStep:
		var p protocol.StepParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}
		return e.Step(p.Action)

	case protocol.MethodSampleGoal:
		return e.SampleGoal(), nil

	case protocol.MethodSampleGoals:
		var p protocol.SampleGoalsParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}
		if p.N < 0 {
			return nil, protocol.NewError(protocol.ErrorCodeInvalidParams, "sample_goals: n must not be negative", nil)
		}
		return e.SampleGoals(p.N), nil

	case protocol.MethodGetGoal:
		return e.GetGoal(), nil

	case protocol.MethodSetGoal:
		var p protocol.GoalParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}
		if err := e.SetGoal(p.Goal); err != nil {
			return nil, err
		}
		return ack{OK: true}, nil

	case protocol.MethodSetToGoal:
		var p protocol.GoalParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}
		if err := e.SetToGoal(p.Goal); err != nil {
			return nil, err
		}
		return ack{OK: true}, nil

	case protocol.MethodGetEnvState:
		st := e.GetEnvState()
		if err := session.Checkpoints.Create(ctx, st.ID, st); err != nil {
			return nil, err
		}
		return st, nil

	case protocol.MethodSetEnvState:
		var p protocol.EnvStateParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}
		st, err := checkpoint(ctx, session.Checkpoints, p)
		if err != nil {
			return nil, err
		}
		if err := e.SetEnvState(st); err != nil {
			return nil, err
		}
		return ack{OK: true}, nil

	case protocol.MethodSpaces:
		return e.Spaces(), nil

	case protocol.MethodComputeRewards:
		var p protocol.ComputeRewardsParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}
		rewards, err := env.ComputeRewards(p.Achieved, p.Desired)
		if err != nil {
			return nil, protocol.NewError(protocol.ErrorCodeInvalidParams, "compute_rewards", err)
		}
		return rewards, nil

	case protocol.MethodDiagnostics:
		var p protocol.DiagnosticsParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}
		return env.GetDiagnostics(p.Paths, p.Prefix), nil

	case protocol.MethodSeed:
		var p protocol.SeedParams
		if err := req.Decode(&p); err != nil {
			return nil, err
		}
		e.Seed(p.Seed)
		return ack{OK: true}, nil

	default:
		return nil, protocol.NewError(protocol.ErrorCodeUnknownMethod, req.Method, nil)
	}
}

func checkpoint(ctx context.Context, store storage.Storage[env.EnvState], p protocol.EnvStateParams) (env.EnvState, error) {
	switch {
	case p.State != nil:
		return *p.State, nil
	case p.ID != "":
		st, err := store.Read(ctx, p.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return env.EnvState{}, protocol.NewError(protocol.ErrorCodeInvalidParams, "set_env_state: unknown checkpoint "+p.ID, err)
		}
		return st, err
	default:
		return env.EnvState{}, protocol.NewError(protocol.ErrorCodeInvalidParams, "set_env_state: state or id required", nil)
	}
}

// Package protocol defines the JSON request/response exchange between an
// environment harness and the websocket endpoint that hosts environments.
package protocol

import (
	"encoding/json"

	"github.com/zeusync/pushreach/internal/env"
)

// Method names accepted by the endpoint.
const (
	MethodReset          = "reset"
	MethodStep           = "step"
	MethodSampleGoal     = "sample_goal"
	MethodSampleGoals    = "sample_goals"
	MethodGetGoal        = "get_goal"
	MethodSetGoal        = "set_goal"
	MethodSetToGoal      = "set_to_goal"
	MethodGetEnvState    = "get_env_state"
	MethodSetEnvState    = "set_env_state"
	MethodSpaces         = "spaces"
	MethodComputeRewards = "compute_rewards"
	MethodDiagnostics    = "diagnostics"
	MethodSeed           = "seed"
)

// Request is one call. ID is echoed in the matching Response.
type Request struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers a Request. Exactly one of Result and Error is set.
type Response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

type StepParams struct {
	Action [2]float64 `json:"action"`
}

type SampleGoalsParams struct {
	N int `json:"n"`
}

type GoalParams struct {
	Goal env.Goal `json:"goal"`
}

// EnvStateParams restores either an inline checkpoint or one the session
// returned earlier from get_env_state, by id.
type EnvStateParams struct {
	State *env.EnvState `json:"state,omitempty"`
	ID    string        `json:"id,omitempty"`
}

type ComputeRewardsParams struct {
	Achieved [][]float64 `json:"achieved"`
	Desired  [][]float64 `json:"desired"`
}

type DiagnosticsParams struct {
	Paths  []env.Path `json:"paths"`
	Prefix string     `json:"prefix"`
}

type SeedParams struct {
	Seed uint64 `json:"seed"`
}

// NewRequest encodes params into a request. Nil params are omitted.
func NewRequest(id uint64, method string, params any) (Request, error) {
	req := Request{ID: id, Method: method}
	if params == nil {
		return req, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return Request{}, NewError(ErrorCodeInvalidParams, "encode params", err)
	}
	req.Params = raw
	return req, nil
}

// Decode unmarshals the params of r into v.
func (r Request) Decode(v any) error {
	if len(r.Params) == 0 {
		return NewError(ErrorCodeInvalidParams, r.Method+": missing params", nil)
	}
	if err := json.Unmarshal(r.Params, v); err != nil {
		return NewError(ErrorCodeInvalidParams, r.Method+": decode params", err)
	}
	return nil
}

// Result builds a successful response.
func Result(id uint64, v any) Response {
	raw, err := json.Marshal(v)
	if err != nil {
		return Failure(id, NewError(ErrorCodeInternal, "encode result", err))
	}
	return Response{ID: id, Result: raw}
}

// Failure builds an error response.
func Failure(id uint64, err error) Response {
	return Response{ID: id, Error: AsError(err)}
}

package rollout

import "errors"

var (
	ErrUnknownPolicy = errors.New("unknown policy")
	ErrNoEpisodes    = errors.New("no episodes requested")
)

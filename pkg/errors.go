package pingsweep

import (
	"errors"

	"github.com/NodePath81/pingsweep/internal/config"
)

var (
	// ErrPeerCount rejects any declared world size other than two.
	ErrPeerCount = config.ErrPeerCount
	// ErrInvalidRole indicates a role string that is neither pinger
	// nor ponger.
	ErrInvalidRole = errors.New("role must be pinger or ponger")
)

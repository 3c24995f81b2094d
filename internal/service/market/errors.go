package market

import "github.com/cockroachdb/errors"

var (
	ErrNotDeployed     = errors.New("marketplace not deployed")
	ErrAlreadyDeployed = errors.New("marketplace already deployed")
)

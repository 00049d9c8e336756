package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/rickgao/forzza-swarm/internal/forzza"
	"github.com/rickgao/forzza-swarm/internal/store"
	"github.com/rickgao/forzza-swarm/internal/swarm"
)

// errMissingParam marks a required query parameter that was not supplied.
var errMissingParam = errors.New("missing parameter")

// StatusFor maps an error to the HTTP status reported to clients.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errMissingParam), errors.Is(err, forzza.ErrInvalidID):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, swarm.ErrRequestTimeout),
		errors.Is(err, swarm.ErrConnectTimeout),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, swarm.ErrNotConnected), errors.Is(err, swarm.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, swarm.ErrTransport),
		errors.Is(err, swarm.ErrSendFailure),
		errors.Is(err, swarm.ErrConnectionClosed),
		errors.Is(err, swarm.ErrProtocol),
		errors.Is(err, swarm.ErrRemote),
		errors.Is(err, swarm.ErrSessionMissing):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

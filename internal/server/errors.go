package server

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"

	"github.com/catanforge/catan-server-go/internal/game"
	"github.com/catanforge/catan-server-go/internal/game/rules"
	"github.com/catanforge/catan-server-go/internal/repository"
)

// ErrorBody is the JSON error returned by every transport.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps an engine error to an HTTP status, a gRPC code and a body.
func classify(err error) (int, codes.Code, ErrorBody) {
	body := ErrorBody{Message: err.Error()}

	if rej, ok := rules.AsRejection(err); ok {
		body.Kind = rej.Kind.String()
		body.Code = rej.Reason.Code
		switch {
		case rej.Reason == rules.ErrMalformedAction:
			return http.StatusBadRequest, codes.InvalidArgument, body
		case rej.Kind == rules.KindIllegalTransition:
			return http.StatusConflict, codes.Aborted, body
		default:
			return http.StatusBadRequest, codes.FailedPrecondition, body
		}
	}

	switch {
	case errors.Is(err, game.ErrGameNotFound):
		body.Kind, body.Code = "NotFound", "game_not_found"
		return http.StatusNotFound, codes.NotFound, body
	case errors.Is(err, game.ErrPersistence):
		body.Kind, body.Code = "PersistenceFailure", "persistence_failure"
		return http.StatusServiceUnavailable, codes.Unavailable, body
	case errors.Is(err, game.ErrReplayInconsistency):
		body.Kind, body.Code = "ReplayInconsistency", "replay_inconsistency"
		return http.StatusInternalServerError, codes.DataLoss, body
	case errors.Is(err, repository.ErrUserExists):
		body.Kind, body.Code = "Conflict", "user_exists"
		return http.StatusConflict, codes.AlreadyExists, body
	case errors.Is(err, repository.ErrUserNotFound):
		body.Kind, body.Code = "NotFound", "user_not_found"
		return http.StatusNotFound, codes.NotFound, body
	}

	body.Kind, body.Code = "Internal", "internal"
	return http.StatusInternalServerError, codes.Internal, body
}

// badRequest is an ErrorBody for input the transport itself rejects.
func badRequest(msg string) ErrorBody {
	return ErrorBody{Kind: "BadRequest", Code: "bad_request", Message: msg}
}

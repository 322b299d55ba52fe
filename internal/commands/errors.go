package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mcoot/crcon-linkbot/internal/console"
	"github.com/mcoot/crcon-linkbot/internal/model"
	"github.com/mcoot/crcon-linkbot/internal/services/broadcast"
)

// UnavailableMessage is shown for any failure talking to the game server
const UnavailableMessage = "Could not reach the game server. The game server might be temporarily unavailable, please try again later."

// renderError maps a handler error to what the user sees. Only console and
// unexpected failures are logged; domain outcomes are ordinary replies.
func renderError(logger *slog.Logger, err error) Response {
	switch {
	case errors.Is(err, model.ErrInvalidName):
		return errorResponse("Please give a player name.")
	case errors.Is(err, broadcast.ErrEmptyMessage):
		return errorResponse("Please give a message.")
	case errors.Is(err, model.ErrPlayerNotFound):
		return errorResponse("No player with that name was found. The name must match exactly, and the player must have played on the server.")
	case errors.Is(err, model.ErrNotLinked):
		return errorResponse("You haven't linked a player yet. Use /link first.")
	case errors.Is(err, model.ErrPlayerLinkedElsewhere):
		return errorResponse("That player is already linked to another Discord account.")
	case errors.Is(err, model.ErrContestNotFound):
		return errorResponse("There is no contest running right now.")
	case errors.Is(err, errWrongCode):
		return errorResponse("That code doesn't match the running contest.")
	case errors.Is(err, model.ErrContestActive),
		errors.Is(err, model.ErrContestEnded),
		errors.Is(err, model.ErrAlreadyEntered),
		errors.Is(err, model.ErrInvalidContest),
		errors.Is(err, model.ErrInvalidMetric):
		return errorResponse(capitalise(err.Error()) + ".")
	case errors.Is(err, model.ErrLeaderboardNotFound):
		return errorResponse("This channel has no leaderboard.")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("command timed out", slog.Any("error", err))
		return errorResponse("That took too long. " + UnavailableMessage)
	case console.IsUnavailable(err):
		logger.Warn("console unavailable", slog.Any("error", err))
		return errorResponse(UnavailableMessage)
	default:
		logger.Error("command failed", slog.Any("error", err))
		return errorResponse("Something went wrong. Please try again later.")
	}
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}

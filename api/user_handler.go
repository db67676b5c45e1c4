package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/team-portfolio-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type userDeleter interface {
	Delete(ctx context.Context, id uuid.UUID) error
}

type userHandler struct {
	responder Responder
	logger    zerolog.Logger
	users     userDeleter
}

func newUserHandler(users userDeleter) userHandler {
	logger := log.With().Str("handlerName", "userHandler").Logger()

	return userHandler{
		responder: NewResponder(logger),
		logger:    logger,
		users:     users,
	}
}

// deleteUser removes a user account
// @Summary Delete user
// @Description Fails with 409 while the user still owns projects
// @Tags Users
// @Produce json
// @Param userID path string true "User ID" format(uuid)
// @Success 200 {object} MessageResponse "Deleted"
// @Failure 403 {object} ErrorResponse "Forbidden - Moderators only"
// @Failure 404 {object} ErrorResponse "Not Found - User not found"
// @Failure 409 {object} ErrorResponse "Conflict - User still owns projects"
// @Router /users/{userID} [delete]
func (h userHandler) deleteUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(chi.URLParam(r, "userID"))
		if err != nil {
			h.responder.WriteError(w, errs.NewInvalidFieldError("userID", "must be a UUID"))
			return
		}

		if err := h.users.Delete(r.Context(), userID); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		h.logger.Info().Str("userID", userID.String()).Msg("user deleted")
		h.responder.WriteJSON(w, MessageResponse{Message: "user deleted"})
	}
}

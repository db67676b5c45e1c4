package api

import (
	"context"
	"net/http"

	"github.com/rpupo63/team-portfolio-backend/models"
	"github.com/rs/zerolog/log"
)

type skillLister interface {
	FindAll(ctx context.Context) ([]models.Skill, error)
}

type skillHandler struct {
	responder Responder
	skills    skillLister
}

func newSkillHandler(skills skillLister) skillHandler {
	logger := log.With().Str("handlerName", "skillHandler").Logger()

	return skillHandler{
		responder: NewResponder(logger),
		skills:    skills,
	}
}

// getAllSkills lists every known skill
// @Summary List skills
// @Description All skills sorted by name, for filter pickers
// @Tags Skills
// @Produce json
// @Success 200 {array} models.Skill
// @Failure 500 {object} ErrorResponse "Internal Server Error"
// @Router /skills [get]
func (h skillHandler) getAllSkills() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		skills, err := h.skills.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if skills == nil {
			skills = []models.Skill{}
		}
		h.responder.WriteJSON(w, skills)
	}
}

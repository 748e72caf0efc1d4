package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dhlee-dev/portfolio-api/internal/common"
)

// GetPortfolio serves the aggregated home-page document: profile plus the
// ordered skill, experience and education collections.
func (h *Handler) GetPortfolio(c *gin.Context) {
	ctx := c.Request.Context()

	profile, err := h.Portfolio.FirstProfile(ctx)
	if err != nil {
		log.Printf("[portfolio] profile read failed: %v", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to load portfolio")
		return
	}

	skills, err := h.Portfolio.ListSkills(ctx)
	if err != nil {
		log.Printf("[portfolio] skills read failed: %v", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to load portfolio")
		return
	}

	experiences, err := h.Portfolio.ListExperiences(ctx)
	if err != nil {
		log.Printf("[portfolio] experiences read failed: %v", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to load portfolio")
		return
	}

	educations, err := h.Portfolio.ListEducations(ctx)
	if err != nil {
		log.Printf("[portfolio] educations read failed: %v", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to load portfolio")
		return
	}

	common.OK(c, gin.H{
		"profile":     profile,
		"skills":      skills,
		"experiences": experiences,
		"educations":  educations,
	})
}

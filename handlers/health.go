package handlers

import (
	"net/http"

	"feedreader-be/utils"
)

type HealthResponse struct {
	Status            string `json:"status"`
	Redis             bool   `json:"redis"`
	Storage           string `json:"storage"`
	PolicyFingerprint string `json:"policy_fingerprint"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondSuccess(w, http.StatusOK, HealthResponse{
		Status:            "ok",
		Redis:             utils.IsRedisAvailable(),
		Storage:           h.articles.Name(),
		PolicyFingerprint: h.sanitizer.Policy().Fingerprint(),
	}, nil)
}

package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"feedreader-be/metrics"
	"feedreader-be/sanitizer"
	"feedreader-be/utils"
)

type SanitizeRequest struct {
	Content string `json:"content"`
}

type SanitizeResponse struct {
	Content    sanitizer.RenderHTML `json:"content"`
	InputBytes int                  `json:"input_bytes"`
	Truncated  bool                 `json:"truncated"`
}

type PolicyResponse struct {
	AllowedTags        []string                  `json:"allowed_tags"`
	AllowedAttributes  []string                  `json:"allowed_attributes"`
	InjectionRules     []sanitizer.InjectionRule `json:"injection_rules"`
	AllowDataURIImages bool                      `json:"allow_data_uri_images"`
	MaxInputBytes      int                       `json:"max_input_bytes"`
	MaxDepth           int                       `json:"max_depth"`
	Fingerprint        string                    `json:"fingerprint"`
}

// Sanitize cleans arbitrary content with the active policy.
func (h *Handler) Sanitize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SanitizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sum := sha256.Sum256([]byte(req.Content))
	cacheKey := utils.BuildCacheKey("sanitize", h.policyKey(), hex.EncodeToString(sum[:]))

	var cached SanitizeResponse
	if err := utils.CacheGet(ctx, cacheKey, &cached); err == nil {
		metrics.CacheHit("sanitize")
		utils.RespondSuccess(w, http.StatusOK, cached, nil)
		return
	}
	metrics.CacheMiss("sanitize")

	start := time.Now()
	result := h.sanitizer.SanitizeWithResult(req.Content)
	metrics.ObserveSanitize(start, result.InputBytes, result.Truncated)
	if result.Truncated {
		h.logger.WarnContext(ctx, "sanitize input truncated", "input_bytes", result.InputBytes)
	}

	response := SanitizeResponse{
		Content:    sanitizer.WrapForRender(result.Content),
		InputBytes: result.InputBytes,
		Truncated:  result.Truncated,
	}
	_ = utils.CacheSet(ctx, cacheKey, response, utils.CacheTTLSanitize)

	utils.RespondSuccess(w, http.StatusOK, response, nil)
}

// GetPolicy describes the active sanitizer policy.
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	p := h.sanitizer.Policy()
	utils.RespondSuccess(w, http.StatusOK, PolicyResponse{
		AllowedTags:        p.AllowedTags(),
		AllowedAttributes:  p.AllowedAttributes(),
		InjectionRules:     p.InjectionRules(),
		AllowDataURIImages: p.AllowDataURIImages(),
		MaxInputBytes:      p.MaxInputBytes(),
		MaxDepth:           p.MaxDepth(),
		Fingerprint:        p.Fingerprint(),
	}, nil)
}

// policyKey is the fingerprint prefix used in cache keys.
func (h *Handler) policyKey() string {
	return h.sanitizer.Policy().Fingerprint()[:16]
}

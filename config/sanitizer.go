package config

import (
	"fmt"

	"feedreader-be/sanitizer"
)

// LoadSanitizerPolicy builds the feed policy, extended by the SANITIZER_*
// variables. An invalid policy is returned as an error and must stop startup.
func LoadSanitizerPolicy() (*sanitizer.Policy, error) {
	cfg := sanitizer.DefaultPolicyConfig()
	cfg.AllowedTags = append(cfg.AllowedTags, GetEnvList("SANITIZER_EXTRA_TAGS")...)
	cfg.AllowedAttributes = append(cfg.AllowedAttributes, GetEnvList("SANITIZER_EXTRA_ATTRIBUTES")...)
	cfg.AllowDataURIImages = GetEnvBool("SANITIZER_ALLOW_DATA_URI_IMAGES", false)
	cfg.MaxInputBytes = GetEnvInt("SANITIZER_MAX_INPUT_BYTES", sanitizer.DefaultMaxInputBytes)
	cfg.MaxDepth = GetEnvInt("SANITIZER_MAX_DEPTH", sanitizer.DefaultMaxDepth)

	policy, err := sanitizer.NewPolicy(cfg)
	if err != nil {
		return nil, fmt.Errorf("load sanitizer policy: %w", err)
	}
	return policy, nil
}

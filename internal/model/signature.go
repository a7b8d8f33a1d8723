package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"pagewatch.dev/core/common"
)

// TaskSignature is a deterministic function of the normalized instruction
// and the scheme+host+path of the URL. It is stable under whitespace/case
// normalization of the instruction and scheme/hostname case changes —
// invariant (ii).
func TaskSignature(instruction, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", NewValidationError(fmt.Sprintf("invalid url for signature: %v", err))
	}

	normalizedURL := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host) + u.Path
	normalizedURL = strings.TrimSuffix(normalizedURL, "/")

	normalizedInstruction := common.NormalizeText(instruction)

	return normalizedInstruction + "|" + normalizedURL, nil
}

// CacheKey hashes a TaskSignature into the stable key stored in plan_cache.
func CacheKey(taskSignature string) string {
	sum := sha256.Sum256([]byte("cache_" + taskSignature))
	return hex.EncodeToString(sum[:])
}

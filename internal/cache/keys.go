package cache

import (
	"fmt"

	"github.com/kiranshivaraju/trustlens/pkg/models"
)

func AnalysisKey(contentType models.ContentType, fingerprint string) string {
	return fmt.Sprintf("analysis:%s:%s", contentType, fingerprint)
}

func RateLimitKey(client string) string {
	return fmt.Sprintf("ratelimit:%s", client)
}

package domain

import "time"

// ProviderMetadata is the read-only per-provider configuration the
// synchronization service consults. Absence of metadata for a requested
// provider is an error, never a default.
type ProviderMetadata struct {
	Name           string
	LatestTTL      time.Duration
	UpdateInterval time.Duration
	RetentionDays  int
}

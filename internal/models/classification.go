// internal/models/classification.go
package models

// ClassificationResult is the routing decision for one request. It is
// produced fresh per request and never mutated afterwards.
type ClassificationResult struct {
	IsSimple bool     `json:"isSimple"`
	Score    float64  `json:"score"` // [0,1], observability only
	Entities []string `json:"entities"`
	Reason   string   `json:"reason"`
}

// Paths a request can be routed to.
const (
	PathFast = "fast"
	PathSlow = "slow"
)

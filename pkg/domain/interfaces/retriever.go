package interfaces

import "context"

// ContextRetriever answers a free text query with the text of the best
// matching retrievable units, joined for model consumption. An unavailable
// index or an empty result is reported as sentinel text, not as an error.
type ContextRetriever interface {
	Query(ctx context.Context, text string, k int) (string, error)
}

// Package embeddings provides embedding generation via langchaingo.
//
// Vectors are produced by any OpenAI-compatible embeddings endpoint. Callers
// that must not fail when the service is down use EmbedOrZero, which logs the
// failure and returns a zero vector of the configured dimension. A zero
// vector scores 0 against every query, so such a reference is still stored
// but ranks last.
package embeddings

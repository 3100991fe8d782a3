// Package generator orchestrates the outline workflows: building the
// reference library, retrieving the references closest to a request,
// generating complete outlines and regenerating single segments in place.
//
// The service owns no parsing or prompt logic of its own. It wires the
// outline, ranker and prompt packages to the external collaborators:
//
//   - ReferenceStore persists reference and generated outlines (library.Store)
//   - Embedder turns text into vectors with a zero-vector fallback (embeddings.Service)
//   - completion.Generator produces text for an assembled request (completion.Client)
//   - ChunkIndexer provides segment-level semantic search (chunkindex.Index), optional
//
// Failures of the generation service surface as completion.ErrGenerationFailed
// and never modify stored outlines. Embedding failures degrade silently to a
// zero vector, which ranks every reference equally.
package generator

// Package services implements the driving port interfaces.
// The Pipeline orchestrates ingest (load, dedupe, chunk, embed,
// persist, index) and the Retriever orchestrates retrieval (embed,
// search, filter, fuse, diversify, rerank, persist provenance).
//
// Services contain the core business logic and only talk to driven
// ports, never to concrete adapters.
package services

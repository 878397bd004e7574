// Package mock provides test doubles for the ai package interfaces.
//
// The mock embedder generates deterministic vectors from text hashes so
// tests can assert on embedding output without an external service, and can
// simulate payload-size rejections via a configurable character budget.
package mock

// Package chunk resolves chunking strategies and splits document text into
// embeddable units.
//
// Strategy resolution is a pure function over the request, collection and
// repository configuration. Precedence, highest first:
//
//  1. An explicit strategy on the request, when the target collection allows
//     per-request overrides and the requested values parse cleanly.
//  2. The collection's configured strategy.
//  3. A fixed default (size 1000, overlap 200), with the request's ad hoc
//     size/overlap parameters applied when they parse cleanly.
//
// Malformed caller-supplied values fall back to the next candidate rather
// than failing the request. The fallback is logged, never propagated.
package chunk

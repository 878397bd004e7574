// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides abstractions for the embedding services used by the
// ingestion pipeline.
//
// The Embedder interface hides the embedding provider behind a narrow
// contract so the pipeline depends on an abstraction rather than a concrete
// client. Failures are classified into two sentinel categories the pipeline
// reacts to differently:
//
//   - ErrOversize: the request payload was rejected as too large. The
//     caller should split the batch and retry the halves.
//   - ErrTransient: a network or backend hiccup. The caller may retry the
//     same batch a bounded number of times.
//
// # Implementation Packages
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
package ai

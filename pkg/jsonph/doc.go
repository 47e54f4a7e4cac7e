// Package jsonph provides types, interfaces, and the request pipeline for
// working with the JSONPlaceholder REST API.
//
// # Overview
//
// The jsonph package defines the domain types (Post and its request
// payloads), the PostsClient interface, and the Pipeline every call runs
// through. A concrete client is provided by the jphclient package, which wires
// configuration, transport, logging and the cache store:
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/jsonplaceholder-client/pkg/jphclient"
//	  "github.com/fivetwenty-io/jsonplaceholder-client/pkg/jsonph"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  cli, err := jphclient.New(jsonph.DefaultConfig())
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  post, err := cli.Posts().Get(ctx, 1)
//	  if err != nil { log.Fatal(err) }
//	  _ = post
//	}
//
// # Pipeline
//
// Each call passes through a fixed sequence: header merge, outbound log,
// cache lookup (GET only), transport with retry, inbound log, cache
// population, error normalisation. A cache hit skips the transport and is
// returned with Origin set to OriginCache and an X-Cache: HIT header.
//
// Retries happen inside the transport: a failure without a response or a
// status >= 500 is retried up to three times with delays of 200ms, 400ms and
// 800ms. Retry attempts are not logged individually.
//
// # Caching
//
// The cache store is best effort. Backend errors are logged and treated as
// misses, so an unreachable Redis or NATS server leaves the client working
// without a cache. Each backend operation is bounded by a 250ms deadline, and
// after two consecutive failures a CircuitBreaker skips the backend for 30s.
// Entries expire after 300s by default and are not invalidated by Create,
// Update or Delete. CacheConfig.L1Size adds an in-memory tier in front of a
// remote backend.
//
// # Errors
//
// Every failure is returned as *Error with a Kind: API (upstream error
// status), Network (no response), Validation (rejected before dispatch) or
// Unknown. Helpers such as IsNotFound, IsNetworkError and KindOf make it easy
// to branch without inspecting messages:
//
//	post, err := cli.Posts().Get(ctx, 99999)
//	if jsonph.IsNotFound(err) {
//	  // handle missing post
//	}
package jsonph

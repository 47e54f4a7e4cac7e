// Package jphclient provides the primary entry point for constructing a
// JSONPlaceholder API client that implements the jsonph.Client interface.
//
// It wires configuration, the retrying HTTP transport, logging, and the cache
// store into the request pipeline defined in the jsonph package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/jsonplaceholder-client/pkg/jphclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // Defaults: public upstream, Redis cache on localhost:6379.
//	  cli, err := jphclient.NewFromEnv()
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  posts, err := cli.Posts().List(ctx)
//	  if err != nil { log.Fatal(err) }
//	  _ = posts
//	}
//
// A Redis server that is down or unreachable does not prevent the client from
// working; every lookup is then a miss and nothing is cached.
package jphclient

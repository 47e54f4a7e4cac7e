package jsonph

// Client is the JSONPlaceholder API client.
type Client interface {
	// Posts returns the posts resource client.
	Posts() PostsClient
	// Pipeline exposes the request pipeline for calls the resource clients
	// do not cover.
	Pipeline() *Pipeline
	// Close disconnects the cache backend. Safe to call more than once.
	Close() error
}

package search

// PruneTable supplies lower bounds on the number of moves from a pattern to the search target.
//
// Lookup must never overestimate. ExtendForSearchDepth is called every time the driver's depth
// bound grows; it may do more work, but calls for depths already covered must leave every
// Lookup result unchanged. Implementations decide whether deepening is safe to run concurrently
// with Lookup; drivers that search in parallel must serialize it otherwise.
type PruneTable[P any] interface {
	Lookup(pattern P) Depth
	ExtendForSearchDepth(searchDepth Depth, approximateNumEntries int)
}

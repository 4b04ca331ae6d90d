package util

import "runtime"

// ReasonableShardCount returns the default shard (concurrency) count: the
// number of logical CPUs available to the process. Shard assignment is
// randomized per entry rather than hashed, so there is no power-of-two
// masking constraint to satisfy here, unlike a hash-mod-shardcount scheme.
func ReasonableShardCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		return 1
	}
	return p
}

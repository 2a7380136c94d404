// Package idgen issues time-ordered int64 identifiers for threads, posts and
// reactions using a snowflake node. IDs from one node are strictly increasing,
// which gives listings a stable insertion-order tiebreaker.
package idgen

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	mu   sync.RWMutex
	node *snowflake.Node
)

// Init configures the process-wide node. It may be called again (e.g. in
// tests) to switch node ids.
func Init(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	mu.Lock()
	node = n
	mu.Unlock()
	return nil
}

// Next returns a new identifier. If Init was never called, node 0 is used.
func Next() int64 {
	mu.RLock()
	n := node
	mu.RUnlock()
	if n == nil {
		mu.Lock()
		if node == nil {
			node, _ = snowflake.NewNode(0)
		}
		n = node
		mu.Unlock()
	}
	return n.Generate().Int64()
}

// Package idgen generates human-readable identifiers that are unique across instances.
package idgen

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/retailpos/backend/internal/domain/trade"
)

// DefaultOrderPrefix starts every order number
const DefaultOrderPrefix = "ORD-"

// SnowflakeOrderNumbers generates order numbers from snowflake ids. Numbers are
// time-ordered and unique as long as every instance runs with its own node id.
type SnowflakeOrderNumbers struct {
	node   *snowflake.Node
	prefix string
}

// NewSnowflakeOrderNumbers creates a generator for node (0-1023)
func NewSnowflakeOrderNumbers(nodeID int64, prefix string) (*SnowflakeOrderNumbers, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("invalid snowflake node %d: %w", nodeID, err)
	}
	if prefix == "" {
		prefix = DefaultOrderPrefix
	}
	return &SnowflakeOrderNumbers{node: node, prefix: prefix}, nil
}

// Next returns a new order number such as ORD-1Z141Z3L3K2TC
func (g *SnowflakeOrderNumbers) Next() string {
	return g.prefix + strings.ToUpper(g.node.Generate().Base36())
}

var _ trade.OrderNumberGenerator = (*SnowflakeOrderNumbers)(nil)

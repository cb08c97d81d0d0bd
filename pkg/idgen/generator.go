package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator hands out unique row ids.
type Generator interface {
	GenerateID() int64
}

// GeneratorFunc adapts a plain function, mostly for deterministic tests.
type GeneratorFunc func() int64

func (f GeneratorFunc) GenerateID() int64 { return f() }

// SnowflakeGenerator issues time-ordered ids. snowflake.Node is already safe
// for concurrent use.
type SnowflakeGenerator struct {
	node *snowflake.Node
}

// NewSnowflakeGenerator initializes a new ID generator.
// nodeID must be unique per server instance (0-1023) to prevent collisions.
func NewSnowflakeGenerator(nodeID int64) (*SnowflakeGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &SnowflakeGenerator{node: node}, nil
}

func (g *SnowflakeGenerator) GenerateID() int64 {
	return g.node.Generate().Int64()
}

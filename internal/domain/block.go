package domain

import "fmt"

// BlockType names the kind of a block. Only the types below carry meaning for
// the runtime; every other type is an opaque UI block.
type BlockType string

const (
	BlockTypeBinding        BlockType = "binding"
	BlockTypeOverlay        BlockType = "overlay"
	BlockTypeWindowRegistry BlockType = "windowRegistry"
)

// Block is a typed data record. Only Data["state"] is mutated at runtime, and
// never in place: sessions seed their state store from a deep copy.
type Block struct {
	BlockID   string         `json:"blockId" yaml:"blockId"`
	BlockType BlockType      `json:"blockType" yaml:"blockType"`
	Data      map[string]any `json:"data" yaml:"data"`
}

// Manifest names the region blocks of a bundle.
type Manifest struct {
	Top       string            `json:"top,omitempty" yaml:"top,omitempty"`
	Main      string            `json:"main,omitempty" yaml:"main,omitempty"`
	Bottom    string            `json:"bottom,omitempty" yaml:"bottom,omitempty"`
	EntrySlug string            `json:"entrySlug,omitempty" yaml:"entrySlug,omitempty"`
	Routes    map[string]string `json:"routes,omitempty" yaml:"routes,omitempty"`
}

// Bundle is a parsed, static set of blocks.
type Bundle struct {
	Manifest Manifest         `json:"manifest" yaml:"manifest"`
	Blocks   map[string]Block `json:"blocks" yaml:"blocks"`
}

// Normalize fills empty block ids from their map keys and rejects blocks
// whose id disagrees with the key they are stored under.
func (b *Bundle) Normalize() error {
	if b == nil {
		return fmt.Errorf("bundle is nil")
	}
	if b.Blocks == nil {
		b.Blocks = map[string]Block{}
	}
	for key, blk := range b.Blocks {
		if blk.BlockID == "" {
			blk.BlockID = key
			b.Blocks[key] = blk
			continue
		}
		if blk.BlockID != key {
			return fmt.Errorf("block %q stored under key %q", blk.BlockID, key)
		}
	}
	return nil
}

// Block returns the block with the given id.
func (b *Bundle) Block(id string) (Block, bool) {
	if b == nil {
		return Block{}, false
	}
	blk, ok := b.Blocks[id]
	return blk, ok
}

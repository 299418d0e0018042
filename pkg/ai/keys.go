package ai

import (
	"strings"
	"sync/atomic"
)

// KeyPool hands out API keys round-robin. Safe for concurrent use.
type KeyPool struct {
	keys []string
	next atomic.Uint64
}

// NewKeyPool creates a pool from keys, dropping blanks and duplicates
func NewKeyPool(keys ...string) *KeyPool {
	seen := make(map[string]struct{}, len(keys))
	clean := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		clean = append(clean, k)
	}
	return &KeyPool{keys: clean}
}

// Next returns the next key, or "" for an empty pool
func (p *KeyPool) Next() string {
	if p == nil || len(p.keys) == 0 {
		return ""
	}
	n := p.next.Add(1) - 1
	return p.keys[n%uint64(len(p.keys))]
}

// Len returns the number of usable keys
func (p *KeyPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

package persistence

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MergeAddresses returns the union of existing and added, keeping the order
// of first appearance. Blank entries are dropped.
func MergeAddresses(existing, added []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(added))
	merged := make([]string, 0, len(existing)+len(added))
	for _, list := range [][]string{existing, added} {
		for _, addr := range list {
			addr = strings.TrimSpace(addr)
			if addr == "" {
				continue
			}
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			merged = append(merged, addr)
		}
	}
	return merged
}

// MarshalAddresses serializes the address list as a JSON array
func MarshalAddresses(addresses []string) ([]byte, error) {
	if addresses == nil {
		addresses = []string{}
	}
	data, err := json.Marshal(addresses)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal addresses to JSON: %w", err)
	}
	return data, nil
}

// UnmarshalAddresses deserializes a JSON array of addresses. Empty data is an
// empty book.
func UnmarshalAddresses(data []byte) ([]string, error) {
	if len(data) == 0 {
		return []string{}, nil
	}
	var addresses []string
	if err := json.Unmarshal(data, &addresses); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON to addresses: %w", err)
	}
	if addresses == nil {
		addresses = []string{}
	}
	return addresses, nil
}

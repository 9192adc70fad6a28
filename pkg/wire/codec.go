// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package wire

import (
	"encoding/json"
	"fmt"
)

// CodecVersion names the wire format a caller asks Marshal to produce. The
// version is not written into the marshaled bytes, and Unmarshal always
// reports CurrentVersion.
type CodecVersion uint16

const (
	// CurrentVersion is the only version this build produces or accepts.
	CurrentVersion CodecVersion = 0
)

// Codec is the versioned marshaler used to persist block, trie, and storage
// metadata records (distinct from the envelope/candidate JSON helpers in
// envelope.go and wire.go, which are wire payloads rather than on-disk
// records). Its output is plain JSON.
var Codec = &JSONCodec{}

// JSONCodec implements Codec over encoding/json.
type JSONCodec struct{}

func (c *JSONCodec) Marshal(version CodecVersion, v interface{}) ([]byte, error) {
	if version != CurrentVersion {
		return nil, fmt.Errorf("wire: unsupported codec version: %d", version)
	}
	return json.Marshal(v)
}

func (c *JSONCodec) Unmarshal(data []byte, v interface{}) (CodecVersion, error) {
	err := json.Unmarshal(data, v)
	return CurrentVersion, err
}

// Package serialization reads and writes .holo archives: named float64
// tensors plus a JSON header, used to checkpoint optimizer state.
//
// Layout (all integers little-endian):
//
//	0x00  magic "HOLO"
//	0x04  uint32 format version
//	0x08  uint32 flags
//	0x0C  uint32 reserved
//	0x10  uint64 header size
//	0x18  uint64 data size
//	0x20  [32]byte SHA-256 of the data section
//	0x40  JSON header, zero padded to a 64-byte boundary
//	....  tensor data (float64, row-major)
package serialization

import (
	"encoding/json"
	"time"

	"github.com/born-ml/holocron/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "HOLO"
	FormatVersion   = 1
	HeaderAlignment = 64 // Align tensor data to 64 bytes
	FixedHeaderSize = 64 // Fixed header size (0x40 bytes)
	ChecksumSize    = 32 // SHA-256 checksum size
	ChecksumOffset  = 0x20
	ElementSize     = 8 // float64
)

// Archive kinds.
const (
	KindOptimizer = "optimizer"
)

// Flags.
const (
	FlagHasOptimizer uint32 = 1 << 1 // optimizer state included
	FlagHasMetadata  uint32 = 1 << 2 // custom metadata included
)

// Header represents the JSON header of a .holo file.
type Header struct {
	FormatVersion   int               `json:"format_version"`
	HolocronVersion string            `json:"holocron_version"`
	Kind            string            `json:"kind"` // What the archive holds (e.g., "optimizer")
	CreatedAt       time.Time         `json:"created_at"`
	Tensors         []TensorMeta      `json:"tensors"`
	Metadata        map[string]string `json:"metadata"`
	Payload         json.RawMessage   `json:"payload,omitempty"` // Kind-specific structured data
}

// TensorMeta describes a tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // Tensor name (e.g., "state.0.exp_avg")
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Bytes from start of the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// Archive is the in-memory form of a .holo file.
type Archive struct {
	Kind     string
	Metadata map[string]string
	Payload  json.RawMessage
	Tensors  map[string]*tensor.Tensor
}

// NewArchive creates an empty archive of the given kind.
func NewArchive(kind string) *Archive {
	return &Archive{
		Kind:     kind,
		Metadata: make(map[string]string),
		Tensors:  make(map[string]*tensor.Tensor),
	}
}

func paddingFor(pos int64) int64 {
	return (HeaderAlignment - (pos % HeaderAlignment)) % HeaderAlignment
}

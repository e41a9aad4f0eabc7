package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"time"
)

// Version is written into every header.
const Version = "0.1.0"

// Write encodes archive to w.
//
// Tensors are laid out in name order so the same archive always produces
// the same data section.
func Write(w io.Writer, archive *Archive) error {
	names := make([]string, 0, len(archive.Tensors))
	for name := range archive.Tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{
		FormatVersion:   FormatVersion,
		HolocronVersion: Version,
		Kind:            archive.Kind,
		CreatedAt:       time.Now().UTC(),
		Tensors:         make([]TensorMeta, 0, len(names)),
		Metadata:        archive.Metadata,
		Payload:         archive.Payload,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	// Tensor data
	var data bytes.Buffer
	buf := make([]byte, ElementSize)
	for _, name := range names {
		t := archive.Tensors[name]
		meta := TensorMeta{
			Name:   name,
			Shape:  []int(t.Shape().Clone()),
			Offset: int64(data.Len()),
			Size:   int64(t.NumElements() * ElementSize),
		}
		for _, v := range t.Data() {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
			data.Write(buf)
		}
		header.Tensors = append(header.Tensors, meta)
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if archive.Kind == KindOptimizer {
		flags |= FlagHasOptimizer
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], FormatVersion)
	binary.LittleEndian.PutUint32(fixed[8:12], flags)
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(data.Len()))
	sum := sha256.Sum256(data.Bytes())
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], sum[:])

	if _, err := w.Write(fixed); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if pad := paddingFor(int64(FixedHeaderSize + len(headerJSON))); pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}
	if _, err := w.Write(data.Bytes()); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// WriteFile writes archive to path, replacing any existing file.
func WriteFile(path string, archive *Archive) (err error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoints
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return Write(file, archive)
}

package serialization

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/born-ml/miniflow/internal/tensor"
)

const (
	metadataKey = "__metadata__"
	checksumKey = "sha256"
	dtypeF64    = "F64"
)

// SafeTensorHeader represents a tensor in the SafeTensors header.
type SafeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// WriteSafeTensors writes tensors to a SafeTensors file, creating or
// truncating it.
func WriteSafeTensors(path string, tensors map[string]*tensor.Tensor, metadata map[string]string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for saving parameters
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	w := bufio.NewWriter(file)
	if err := WriteTo(w, tensors, metadata); err != nil {
		_ = file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}

// WriteTo writes tensors in SafeTensors format.
//
// Tensors are written in alphabetical order by name. The SHA-256 of the data
// section is added to the metadata under "sha256".
func WriteTo(w io.Writer, tensors map[string]*tensor.Tensor, metadata map[string]string) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Err:     ErrTooManyTensors,
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	var data []byte
	for _, name := range names {
		t := tensors[name]
		begin := int64(len(data))
		for _, v := range t.Data() {
			data = binary.LittleEndian.AppendUint64(data, math.Float64bits(v))
		}

		shape := make([]int64, t.Rank())
		for i, dim := range t.Shape() {
			shape[i] = int64(dim)
		}
		header[name] = SafeTensorHeader{
			DType:       dtypeF64,
			Shape:       shape,
			DataOffsets: [2]int64{begin, int64(len(data))},
		}
	}

	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	sum := ComputeChecksum(data)
	meta[checksumKey] = hex.EncodeToString(sum[:])
	header[metadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// ReadSafeTensors reads the tensors and metadata of a SafeTensors file.
func ReadSafeTensors(path string) (map[string]*tensor.Tensor, map[string]string, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for loading parameters
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	tensors, metadata, err := ReadFrom(bufio.NewReader(file))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return tensors, metadata, nil
}

// ReadFrom reads F64 tensors in SafeTensors format. When the metadata holds
// a "sha256" entry, the data section is verified against it.
func ReadFrom(r io.Reader) (map[string]*tensor.Tensor, map[string]string, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header: %w", err)
	}

	var metadata map[string]string
	if m, ok := raw[metadataKey]; ok {
		if err := json.Unmarshal(m, &metadata); err != nil {
			return nil, nil, fmt.Errorf("failed to parse metadata: %w", err)
		}
		delete(raw, metadataKey)
	}
	if stored, ok := metadata[checksumKey]; ok {
		if err := ValidateChecksum(data, stored); err != nil {
			return nil, nil, err
		}
	}

	headers := make(map[string]SafeTensorHeader, len(raw))
	ranges := make([]tensorRange, 0, len(raw))
	for name, msg := range raw {
		if err := ValidateTensorName(name); err != nil {
			return nil, nil, err
		}
		var h SafeTensorHeader
		if err := json.Unmarshal(msg, &h); err != nil {
			return nil, nil, fmt.Errorf("tensor %q: failed to parse header: %w", name, err)
		}
		if h.DType != dtypeF64 {
			return nil, nil, fmt.Errorf("tensor %q: %w %q", name, ErrUnsupportedDType, h.DType)
		}
		headers[name] = h
		ranges = append(ranges, tensorRange{Name: name, Begin: h.DataOffsets[0], End: h.DataOffsets[1]})
	}
	if err := validateOffsets(ranges, int64(len(data))); err != nil {
		return nil, nil, err
	}

	tensors := make(map[string]*tensor.Tensor, len(headers))
	for name, h := range headers {
		t, err := decodeTensor(h, data[h.DataOffsets[0]:h.DataOffsets[1]])
		if err != nil {
			return nil, nil, fmt.Errorf("tensor %q: %w", name, err)
		}
		tensors[name] = t
	}
	return tensors, metadata, nil
}

func decodeTensor(h SafeTensorHeader, buf []byte) (*tensor.Tensor, error) {
	shape := make(tensor.Shape, len(h.Shape))
	for i, dim := range h.Shape {
		shape[i] = int(dim)
	}
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(buf) != shape.NumElements()*8 {
		return nil, fmt.Errorf("%d bytes for shape %v", len(buf), shape)
	}

	values := make([]float64, shape.NumElements())
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return tensor.FromSlice(values, shape)
}

package storage

import (
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Layer is one retained snapshot: the full row-major mass buffer after a
// committed step.
type Layer struct {
	Step int
	Mass []float64
}

// ErrBadLayerFile indicates a snapshot file with a corrupt or truncated
// header.
var ErrBadLayerFile = errors.New("storage: malformed layer file")

const layerMagic = uint32(0x44474C31) // "DGL1"

// WriteLayers streams snapshots to a gzip-compressed binary file. Layout:
// magic, rows, cols, layer count, then per layer the step number and the
// raw little-endian float64 masses.
func WriteLayers(path string, rows, cols int, layers []Layer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	defer zw.Close()

	header := []uint32{layerMagic, uint32(rows), uint32(cols), uint32(len(layers))}
	for _, v := range header {
		if err := binary.Write(zw, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	for _, layer := range layers {
		if len(layer.Mass) != rows*cols {
			return fmt.Errorf("storage: layer %d has %d cells, want %d", layer.Step, len(layer.Mass), rows*cols)
		}
		if err := binary.Write(zw, binary.LittleEndian, uint32(layer.Step)); err != nil {
			return err
		}
		buf := make([]byte, 8*len(layer.Mass))
		for i, v := range layer.Mass {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		}
		if _, err := zw.Write(buf); err != nil {
			return err
		}
	}

	return zw.Close()
}

// ReadLayers reads a file written by WriteLayers.
func ReadLayers(path string) (rows, cols int, layers []Layer, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return 0, 0, nil, err
	}
	defer zr.Close()

	var header [4]uint32
	for i := range header {
		if err := binary.Read(zr, binary.LittleEndian, &header[i]); err != nil {
			return 0, 0, nil, fmt.Errorf("%w: %v", ErrBadLayerFile, err)
		}
	}
	if header[0] != layerMagic {
		return 0, 0, nil, fmt.Errorf("%w: bad magic %#x", ErrBadLayerFile, header[0])
	}

	rows, cols = int(header[1]), int(header[2])
	count := int(header[3])
	if rows <= 0 || cols <= 0 || count < 0 {
		return 0, 0, nil, fmt.Errorf("%w: %dx%d grid, %d layers", ErrBadLayerFile, rows, cols, count)
	}

	layers = make([]Layer, 0, count)
	cells := rows * cols
	buf := make([]byte, 8*cells)

	for n := 0; n < count; n++ {
		var step uint32
		if err := binary.Read(zr, binary.LittleEndian, &step); err != nil {
			return 0, 0, nil, fmt.Errorf("%w: %v", ErrBadLayerFile, err)
		}
		if _, err := io.ReadFull(zr, buf); err != nil {
			return 0, 0, nil, fmt.Errorf("%w: %v", ErrBadLayerFile, err)
		}

		mass := make([]float64, cells)
		for i := range mass {
			mass[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
		}
		layers = append(layers, Layer{Step: int(step), Mass: mass})
	}

	return rows, cols, layers, nil
}

package resources

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/spaghettifunk/lumen/engine/core"
)

/** @brief Current version of the binary mesh format. */
const MeshFileVersion uint8 = 1

/**
 * @brief Follows the ResourceHeader at the start of a .mesh file.
 */
type MeshFileHeader struct {
	SubMeshCount      uint64
	VertexCount       uint64
	IndexCount        uint64
	StringTableOffset uint64
	StringTableLength uint64
}

/**
 * @brief One per submesh, right after the MeshFileHeader. Name offsets are
 * relative to the start of the string table.
 */
type SubMeshHeader struct {
	VertexOffset uint32
	VertexCount  uint32
	IndexOffset  uint32
	IndexCount   uint32
	NameOffset   uint32
	NameLength   uint32
}

const (
	resourceHeaderSize = 8
	meshFileHeaderSize = 40
	subMeshHeaderSize  = 24
)

// MeshData is the decoded content of a .mesh file.
type MeshData struct {
	Name      string
	Vertices  []Vertice
	Indices   []uint32
	SubMeshes []SubMesh
}

func ReadMeshFile(path string) (*MeshData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := DecodeMesh(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// DecodeMesh reads a little-endian mesh stream and validates its header and
// submesh ranges.
func DecodeMesh(r io.Reader) (*MeshData, error) {
	var rh ResourceHeader
	if err := binary.Read(r, binary.LittleEndian, &rh); err != nil {
		return nil, fmt.Errorf("%w: reading resource header: %s", core.ErrInvalidMeshFile, err)
	}
	if rh.MagicNumber != ResourceMagic {
		return nil, fmt.Errorf("%w: bad magic 0x%08x", core.ErrInvalidMeshFile, rh.MagicNumber)
	}
	if ResourceType(rh.ResourceType) != ResourceTypeMesh {
		return nil, fmt.Errorf("%w: resource type %s", core.ErrInvalidMeshFile, ResourceType(rh.ResourceType))
	}
	if rh.Version != MeshFileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", core.ErrInvalidMeshFile, rh.Version)
	}

	var mh MeshFileHeader
	if err := binary.Read(r, binary.LittleEndian, &mh); err != nil {
		return nil, fmt.Errorf("%w: reading mesh header: %s", core.ErrInvalidMeshFile, err)
	}
	const limit = 1 << 31
	if mh.SubMeshCount > limit || mh.VertexCount > limit || mh.IndexCount > limit || mh.StringTableLength > limit {
		return nil, fmt.Errorf("%w: header counts out of range", core.ErrInvalidMeshFile)
	}
	expectedOffset := uint64(resourceHeaderSize+meshFileHeaderSize) +
		mh.SubMeshCount*subMeshHeaderSize + mh.VertexCount*VerticeSize + mh.IndexCount*4
	if mh.StringTableOffset != expectedOffset {
		return nil, fmt.Errorf("%w: string table at %d, expected %d", core.ErrInvalidMeshFile, mh.StringTableOffset, expectedOffset)
	}

	headers := make([]SubMeshHeader, mh.SubMeshCount)
	if err := binary.Read(r, binary.LittleEndian, headers); err != nil {
		return nil, fmt.Errorf("%w: reading submesh headers: %s", core.ErrInvalidMeshFile, err)
	}
	data := &MeshData{
		Vertices:  make([]Vertice, mh.VertexCount),
		Indices:   make([]uint32, mh.IndexCount),
		SubMeshes: make([]SubMesh, mh.SubMeshCount),
	}
	if err := binary.Read(r, binary.LittleEndian, data.Vertices); err != nil {
		return nil, fmt.Errorf("%w: reading vertices: %s", core.ErrInvalidMeshFile, err)
	}
	if err := binary.Read(r, binary.LittleEndian, data.Indices); err != nil {
		return nil, fmt.Errorf("%w: reading indices: %s", core.ErrInvalidMeshFile, err)
	}
	table := make([]byte, mh.StringTableLength)
	if _, err := io.ReadFull(r, table); err != nil {
		return nil, fmt.Errorf("%w: reading string table: %s", core.ErrInvalidMeshFile, err)
	}

	nameEnd := bytes.IndexByte(table, 0)
	if nameEnd < 0 {
		return nil, fmt.Errorf("%w: unterminated mesh name", core.ErrInvalidMeshFile)
	}
	data.Name = string(table[:nameEnd])

	for i, h := range headers {
		if uint64(h.NameOffset)+uint64(h.NameLength) > uint64(len(table)) {
			return nil, fmt.Errorf("%w: submesh %d name outside string table", core.ErrInvalidMeshFile, i)
		}
		data.SubMeshes[i] = SubMesh{
			VertexOffset: h.VertexOffset,
			VertexCount:  h.VertexCount,
			IndexOffset:  h.IndexOffset,
			IndexCount:   h.IndexCount,
			Index:        i,
			Name:         string(table[h.NameOffset : h.NameOffset+h.NameLength]),
		}
	}

	check := Mesh{Vertices: data.Vertices, Indices: data.Indices, SubMeshes: data.SubMeshes}
	if err := check.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidMeshFile, err)
	}
	return data, nil
}

func WriteMeshFile(path string, m *Mesh) error {
	if err := m.Validate(); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := EncodeMesh(w, m); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeMesh writes m in the binary mesh layout. Names are stored NUL
// terminated in the string table, mesh name first.
func EncodeMesh(w io.Writer, m *Mesh) error {
	if err := m.Validate(); err != nil {
		return err
	}

	var table bytes.Buffer
	table.WriteString(m.name)
	table.WriteByte(0)

	headers := make([]SubMeshHeader, len(m.SubMeshes))
	for i, sm := range m.SubMeshes {
		headers[i] = SubMeshHeader{
			VertexOffset: sm.VertexOffset,
			VertexCount:  sm.VertexCount,
			IndexOffset:  sm.IndexOffset,
			IndexCount:   sm.IndexCount,
			NameOffset:   uint32(table.Len()),
			NameLength:   uint32(len(sm.Name)),
		}
		table.WriteString(sm.Name)
		table.WriteByte(0)
	}

	mh := MeshFileHeader{
		SubMeshCount: uint64(len(m.SubMeshes)),
		VertexCount:  uint64(len(m.Vertices)),
		IndexCount:   uint64(len(m.Indices)),
	}
	mh.StringTableOffset = uint64(resourceHeaderSize+meshFileHeaderSize) +
		mh.SubMeshCount*subMeshHeaderSize + mh.VertexCount*VerticeSize + mh.IndexCount*4
	mh.StringTableLength = uint64(table.Len())

	rh := ResourceHeader{
		MagicNumber:  ResourceMagic,
		ResourceType: uint8(ResourceTypeMesh),
		Version:      MeshFileVersion,
	}
	for _, v := range []any{rh, mh, headers, m.Vertices, m.Indices} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	_, err := w.Write(table.Bytes())
	return err
}

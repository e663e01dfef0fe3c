package retarget

import (
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

func readAccessorScalar(doc *gltf.Document, accessorIdx int) ([]float32, error) {
	accessor := doc.Accessors[accessorIdx]
	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]

	data, err := bufferData(doc, buffer)
	if err != nil {
		return nil, err
	}

	offset := int(bufferView.ByteOffset) + int(accessor.ByteOffset)
	count := int(accessor.Count)
	stride := int(bufferView.ByteStride)
	if stride == 0 {
		stride = 4
	}

	result := make([]float32, count)
	for i := 0; i < count; i++ {
		idx := offset + i*stride
		if idx+4 > len(data) {
			return nil, fmt.Errorf("scalar accessor out of range")
		}
		result[i] = *(*float32)(unsafe.Pointer(&data[idx]))
	}
	return result, nil
}

func readAccessorVec3(doc *gltf.Document, accessorIdx int) ([]mgl32.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]

	data, err := bufferData(doc, buffer)
	if err != nil {
		return nil, err
	}

	offset := int(bufferView.ByteOffset) + int(accessor.ByteOffset)
	count := int(accessor.Count)
	stride := int(bufferView.ByteStride)
	if stride == 0 {
		stride = 12
	}

	result := make([]mgl32.Vec3, count)
	for i := 0; i < count; i++ {
		idx := offset + i*stride
		if idx+12 > len(data) {
			return nil, fmt.Errorf("vec3 accessor out of range")
		}
		floats := (*[3]float32)(unsafe.Pointer(&data[idx]))
		result[i] = mgl32.Vec3{floats[0], floats[1], floats[2]}
	}
	return result, nil
}

// readAccessorQuat reads VEC4 float rotations in glTF (x, y, z, w) order.
func readAccessorQuat(doc *gltf.Document, accessorIdx int) ([]mgl32.Quat, error) {
	accessor := doc.Accessors[accessorIdx]
	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]

	data, err := bufferData(doc, buffer)
	if err != nil {
		return nil, err
	}

	offset := int(bufferView.ByteOffset) + int(accessor.ByteOffset)
	count := int(accessor.Count)
	stride := int(bufferView.ByteStride)
	if stride == 0 {
		stride = 16
	}

	result := make([]mgl32.Quat, count)
	for i := 0; i < count; i++ {
		idx := offset + i*stride
		if idx+16 > len(data) {
			return nil, fmt.Errorf("quat accessor out of range")
		}
		floats := (*[4]float32)(unsafe.Pointer(&data[idx]))
		result[i] = mgl32.Quat{
			W: floats[3],
			V: mgl32.Vec3{floats[0], floats[1], floats[2]},
		}.Normalize()
	}
	return result, nil
}

func bufferData(doc *gltf.Document, buffer *gltf.Buffer) ([]byte, error) {
	if buffer.URI == "" {
		if len(buffer.Data) > 0 {
			return buffer.Data, nil
		}
		return nil, fmt.Errorf("buffer has no URI and no embedded data")
	}
	if len(buffer.URI) > 5 && buffer.URI[:5] == "data:" {
		if len(buffer.Data) > 0 {
			return buffer.Data, nil
		}
		return nil, fmt.Errorf("data URI buffer not decoded")
	}
	return os.ReadFile(filepath.Clean(buffer.URI))
}

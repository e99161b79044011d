package clusterlight

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"
)

// readUniformsBytes flattens a uniform-block struct into its
// std140-ish byte representation by reflection (same approach as
// mod_client_helpers.go's helper of the same name), used here to
// assemble the clusterParams/sliceParams/lightCounts uniform block the
// host uploads alongside the three light textures.
func readUniformsBytes(field reflect.Value, buf *bytes.Buffer) {
	switch field.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < field.Len(); i++ {
			elem := field.Index(i)
			if elem.Kind() == reflect.Ptr {
				elem = elem.Elem()
			}
			if err := binary.Write(buf, binary.LittleEndian, elem.Interface()); err != nil {
				panic(fmt.Errorf("clusterlight: write slice element: %w", err))
			}
		}

	case reflect.Struct:
		for i := 0; i < field.NumField(); i++ {
			readUniformsBytes(field.Field(i), buf)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Float32:
		if err := binary.Write(buf, binary.LittleEndian, field.Interface()); err != nil {
			panic(fmt.Errorf("clusterlight: write scalar field: %w", err))
		}

	default:
		panic(fmt.Errorf("clusterlight: unsupported uniform field type: %v", field.Kind()))
	}
}

// UniformBlock is the struct whose byte layout becomes the
// clusterParams/sliceParams/lightCounts uniform the host binds
// alongside the three packed light textures.
type UniformBlock struct {
	ClusterParams ClusterParams
	SliceParams   SliceParams
	LightCounts   [4]int32 // point, spot, rect, reserved
	AmbientColor  [3]float32
	// Pad keeps the block's size a multiple of 16 bytes (std140 vec3
	// alignment); it must stay an exported field since readUniformsBytes
	// reaches every field through reflection and panics on unexported ones.
	Pad float32
}

// Bytes packs u into its wire representation via readUniformsBytes.
func (u UniformBlock) Bytes() []byte {
	var buf bytes.Buffer
	readUniformsBytes(reflect.ValueOf(u), &buf)
	return buf.Bytes()
}

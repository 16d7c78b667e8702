package math

import (
	"encoding/binary"
	"errors"
	"io"
	goMath "math"
)

const VECTOR_COMPONENT_BYTES_SIZE = 4

var InvalidVectorBufferErr error = errors.New("Vector buffer length is not a multiple of the component size")

type Vector []float32

func (v Vector) Save(w io.Writer) error {
	for _, val := range v {
		if err := binary.Write(w, binary.BigEndian, val); err != nil {
			return err
		}
	}
	return nil
}

func (v Vector) Load(r io.Reader) error {
	for i := 0; i < len(v); i++ {
		if err := binary.Read(r, binary.BigEndian, &v[i]); err != nil {
			return err
		}
	}
	return nil
}

// VectorFromBytes decodes a packed little-endian float32 buffer, the wire
// format used by dump and delta streams.
func VectorFromBytes(buf []byte) (Vector, error) {
	if (len(buf) == 0) || (len(buf)%VECTOR_COMPONENT_BYTES_SIZE != 0) {
		return nil, InvalidVectorBufferErr
	}

	vector := make(Vector, len(buf)/VECTOR_COMPONENT_BYTES_SIZE)
	for i := 0; i < len(vector); i++ {
		bits := binary.LittleEndian.Uint32(buf[i*VECTOR_COMPONENT_BYTES_SIZE:])
		vector[i] = goMath.Float32frombits(bits)
	}
	return vector, nil
}

func (v Vector) Bytes() []byte {
	buf := make([]byte, len(v)*VECTOR_COMPONENT_BYTES_SIZE)
	for i, val := range v {
		binary.LittleEndian.PutUint32(buf[i*VECTOR_COMPONENT_BYTES_SIZE:], goMath.Float32bits(val))
	}
	return buf
}

func ZerosVector(size int) Vector {
	return make(Vector, size)
}

func OnesVector(size int) Vector {
	vector := make(Vector, size)
	for i := 0; i < size; i++ {
		vector[i] = 1
	}
	return vector
}

func Dot(a, b Vector) float32 {
	var dot float32
	for i := 0; i < len(a); i++ {
		dot += a[i] * b[i]
	}
	return dot
}

func Length(a Vector) float32 {
	return Sqrt(Dot(a, a))
}

// Normalize scales the vector to unit L2 length in place. Zero vectors are
// left untouched.
func (v Vector) Normalize() {
	length := Length(v)
	if length == 0 {
		return
	}
	for i := 0; i < len(v); i++ {
		v[i] /= length
	}
}

func VectorAdd(a, b Vector) Vector {
	assertSameDim(&a, &b)

	result := make(Vector, len(a))
	for i := 0; i < len(a); i++ {
		result[i] = a[i] + b[i]
	}
	return result
}

func VectorSubtract(a, b Vector) Vector {
	assertSameDim(&a, &b)

	result := make(Vector, len(a))
	for i := 0; i < len(a); i++ {
		result[i] = a[i] - b[i]
	}
	return result
}

func VectorScalarMultiply(a Vector, b float32) Vector {
	result := make(Vector, len(a))
	for i := 0; i < len(a); i++ {
		result[i] = a[i] * b
	}
	return result
}

func assertSameDim(i, j *Vector) {
	if len(*i) != len(*j) {
		panic("Vector sizes do not match.")
	}
}

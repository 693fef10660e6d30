package mock

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/familyalbum/faces/internal/domain"
	"github.com/familyalbum/faces/internal/provider"
)

const (
	faceWidth  = 120
	faceHeight = 150
	faceGap    = 40
)

// Detector is a deterministic provider.Model for development and tests.
// The same image bytes always yield the same faces and descriptors.
type Detector struct {
	dimension int
	faces     int
	loads     atomic.Int32
	loaded    atomic.Bool
}

type Option func(*Detector)

// WithFaceCount fixes the number of faces reported for every image. By
// default the count is derived from the image hash and ranges over 1..3.
func WithFaceCount(n int) Option {
	return func(d *Detector) {
		d.faces = n
	}
}

func New(dimension int, opts ...Option) *Detector {
	d := &Detector{dimension: dimension, faces: -1}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Detector) Name() string   { return "mock" }
func (d *Detector) Dimension() int { return d.dimension }

func (d *Detector) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.loads.Add(1)
	d.loaded.Store(true)
	return nil
}

func (d *Detector) Close() error {
	d.loaded.Store(false)
	return nil
}

// Loads reports how many times Load ran.
func (d *Detector) Loads() int {
	return int(d.loads.Load())
}

// Detect lays faces out left to right across the image.
func (d *Detector) Detect(ctx context.Context, image []byte) ([]provider.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !d.loaded.Load() {
		return nil, domain.ErrDetectorUnavailable
	}
	if len(image) == 0 {
		return nil, domain.ErrPhotoUnavailable.WithMessage("Photo image is empty")
	}

	hash := sha256.Sum256(image)
	count := d.faces
	if count < 0 {
		count = 1 + int(hash[0]%3)
	}

	faces := make([]provider.Detection, 0, count)
	for i := 0; i < count; i++ {
		left := faceGap + i*(faceWidth+faceGap)
		faces = append(faces, provider.Detection{
			BoundingBox: domain.BoundingBox{
				Top:    faceGap,
				Right:  left + faceWidth,
				Bottom: faceGap + faceHeight,
				Left:   left,
			},
			Confidence: 0.9 + float64(hash[i%len(hash)]%10)/100,
			Descriptor: descriptor(hash, i, d.dimension),
		})
	}
	return faces, nil
}

// descriptor expands the image hash and face index into a unit vector.
func descriptor(hash [sha256.Size]byte, index, dimension int) []float32 {
	seed := make([]byte, len(hash)+4)
	copy(seed, hash[:])

	out := make([]float32, dimension)
	var block [sha256.Size]byte
	for i := range out {
		if i%len(block) == 0 {
			binary.BigEndian.PutUint32(seed[len(hash):], uint32(index)<<16|uint32(i/len(block)))
			block = sha256.Sum256(seed)
		}
		out[i] = float32(block[i%len(block)])/255*2 - 1
	}

	var norm float64
	for _, v := range out {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return out
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / norm)
	}
	return out
}

var _ provider.Model = (*Detector)(nil)

package heightmap

import (
	"fmt"
	"image"
	"image/color"
	"os"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/go-gl/mathgl/mgl32"
)

// LoadImage reads a square heightmap image. Gray and Gray16 images keep
// their channel directly; any other model is reduced to luma.
//
// With normalize set, samples are divided by the bit depth maximum and the
// heightmap domain is [0,1]. Otherwise samples keep the raw range
// ([0,255] or [0,65535]).
func LoadImage(path string, scaling mgl32.Vec3, normalize bool) (*Heightmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrLoad, path, err)
	}

	hm, err := FromImage(img, scaling, normalize)
	if err != nil {
		return nil, fmt.Errorf("%s (%s): %w", path, format, err)
	}
	return hm, nil
}

// FromImage converts a decoded image into a heightmap.
func FromImage(img image.Image, scaling mgl32.Vec3, normalize bool) (*Heightmap, error) {
	b := img.Bounds()
	if b.Dx() != b.Dy() {
		return nil, fmt.Errorf("%w: image is %dx%d, heightmaps must be square", ErrLoad, b.Dx(), b.Dy())
	}
	if b.Dx() == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrLoad)
	}

	dim := b.Dx()
	samples := make([]float32, dim*dim)

	var maxValue float32 = 255
	switch src := img.(type) {
	case *image.Gray:
		for y := range dim {
			for x := range dim {
				samples[y*dim+x] = float32(src.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	case *image.Gray16:
		maxValue = 65535
		for y := range dim {
			for x := range dim {
				samples[y*dim+x] = float32(src.Gray16At(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
	default:
		for y := range dim {
			for x := range dim {
				g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				samples[y*dim+x] = float32(g.Y)
			}
		}
	}

	rng := Range{Min: 0, Max: maxValue}
	if normalize {
		for i := range samples {
			samples[i] /= maxValue
		}
		rng = UnitRange
	}
	return New(dim, samples, scaling, rng)
}

package common

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/ftrvxmtrx/tga"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmoothstep(t *testing.T) {
	assert.Equal(t, float32(0), Smoothstep(0, 1, -1))
	assert.Equal(t, float32(1), Smoothstep(0, 1, 2))
	assert.InDelta(t, 0.5, Smoothstep(0, 1, 0.5), 1e-6)

	// reversed edges fall instead of rise
	assert.Equal(t, float32(1), Smoothstep(0.5, -1, -1))
	assert.Equal(t, float32(0), Smoothstep(0.5, -1, 0.5))
	assert.InDelta(t, 0.5, Smoothstep(0.5, -1, -0.25), 1e-6)

	assert.Equal(t, float32(0), Smoothstep(1, 1, 0))
	assert.Equal(t, float32(1), Smoothstep(1, 1, 1))
}

func TestDecodeDepth(t *testing.T) {
	assert.Equal(t, float32(-1), DecodeDepth(0))
	assert.Equal(t, float32(1), DecodeDepth(255))
	assert.InDelta(t, 0.0039, DecodeDepth(128), 1e-3)
}

func TestRotationYZX(t *testing.T) {
	x, y, z := float32(0.3), float32(-0.7), float32(1.1)
	got := RotationYZX(x, y, z)
	want := mgl32.HomogRotate3DY(y).Mul4(mgl32.HomogRotate3DZ(z)).Mul4(mgl32.HomogRotate3DX(x))
	assert.True(t, got.ApproxEqualThreshold(want, 1e-6))

	assert.True(t, RotationYZX(0, 0, 0).ApproxEqual(mgl32.Ident4()))
}

func TestComposeTRS(t *testing.T) {
	q := mgl32.QuatRotate(math.Pi/2, mgl32.Vec3{1, 0, 0})
	m := ComposeTRS(mgl32.Vec3{1, 2, 3}, q, mgl32.Vec3{2, 2, 2})

	p := m.Mul4x1(mgl32.Vec4{0, 1, 0, 1})
	assert.InDelta(t, 1, p.X(), 1e-5)
	assert.InDelta(t, 2, p.Y(), 1e-5)
	assert.InDelta(t, 5, p.Z(), 1e-5)
}

func TestFloat32sToBytes(t *testing.T) {
	b := Float32sToBytes([]float32{1, -2})
	require.Len(t, b, 8)
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, b[0:4])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0xc0}, b[4:8])
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, 0, Coalesce(0, 0))
}

func writeTestPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImportedTextureDecode(t *testing.T) {
	data := writeTestPNG(t, 3, 2, color.RGBA{R: 200, G: 10, B: 20, A: 255})

	tex := &ImportedTexture{Name: "mask", Data: data}
	pix, w, h, err := tex.Decode()
	require.NoError(t, err)
	assert.Equal(t, uint32(3), w)
	assert.Equal(t, uint32(2), h)
	assert.Len(t, pix, 3*2*4)
	assert.Equal(t, byte(200), pix[0])
}

func TestImportedTextureDecodeResized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mask.png")
	require.NoError(t, os.WriteFile(path, writeTestPNG(t, 8, 8, color.RGBA{R: 255, A: 255}), 0o644))

	tex := &ImportedTexture{Path: path}
	pix, err := tex.DecodeResized(4, 4)
	require.NoError(t, err)
	assert.Len(t, pix, 4*4*4)
	for i := 0; i < len(pix); i += 4 {
		assert.Equal(t, byte(255), pix[i])
	}
	assert.Equal(t, 8, tex.Width)

	_, err = tex.DecodeResized(0, 4)
	assert.Error(t, err)
}

func TestImportedTextureDecodeGrayPNG(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(1, 1, color.Gray{Y: 128})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gray))

	pix, w, h, err := (&ImportedTexture{Data: buf.Bytes()}).Decode()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), w)
	assert.Equal(t, uint32(2), h)
	assert.Equal(t, []byte{0, 0, 0, 255}, pix[:4])
	assert.Equal(t, []byte{128, 128, 128, 255}, pix[12:16])
}

func TestImportedTextureDecodeTGA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	var buf bytes.Buffer
	require.NoError(t, tga.Encode(&buf, img))

	pix, w, h, err := (&ImportedTexture{Data: buf.Bytes()}).Decode()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), w)
	assert.Equal(t, uint32(1), h)
	assert.Equal(t, []byte{10, 20, 30, 255, 200, 100, 50, 255}, pix)

	path := filepath.Join(t.TempDir(), "mask.TGA")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	fromFile, _, _, err := (&ImportedTexture{Path: path}).Decode()
	require.NoError(t, err)
	assert.Equal(t, pix, fromFile)
}

func TestImportedTextureErrors(t *testing.T) {
	var nilTex *ImportedTexture
	_, _, _, err := nilTex.Decode()
	assert.Error(t, err)

	_, _, _, err = (&ImportedTexture{}).Decode()
	assert.Error(t, err)

	_, _, _, err = (&ImportedTexture{Path: filepath.Join(t.TempDir(), "missing.png")}).Decode()
	assert.Error(t, err)

	_, _, _, err = (&ImportedTexture{Data: []byte("not an image")}).Decode()
	assert.Error(t, err)
}

func TestNopLogger(t *testing.T) {
	l := NopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
	l.With("component", "test").WithGroup("g").Error("discarded")

	assert.Same(t, l, LoggerOr(l))
	assert.NotNil(t, LoggerOr(nil))
}

func TestTextureStagingValidate(t *testing.T) {
	s := NewTextureStaging(3, 2)
	require.Len(t, s.Pixels, 24)
	assert.NoError(t, s.Validate())

	s.Pixels = s.Pixels[:20]
	assert.Error(t, s.Validate())
	assert.Error(t, TextureStagingData{}.Validate())
}

func TestLinearClampSampler(t *testing.T) {
	s := LinearClampSampler()
	assert.Equal(t, wgpu.FilterModeLinear, s.MinFilter)
	assert.Equal(t, wgpu.FilterModeLinear, s.MagFilter)
	assert.Equal(t, wgpu.AddressModeClampToEdge, s.AddressModeW)
	assert.Zero(t, s.LodMaxClamp)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-2.5, 0, 1))
	assert.Equal(t, 1.0, Clamp(3.0, 0, 1))
	assert.Equal(t, 7, Clamp(7, 0, 10))
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"png2svg/edge2loop"
	"png2svg/image2region"
	"png2svg/logger"
	"png2svg/svg2loop"
	p2stypes "png2svg/type"
)

var (
	red  = color.NRGBA{255, 0, 0, 255}
	blue = color.NRGBA{0, 0, 255, 255}
)

func writePNG(t *testing.T, dir string, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, "in.png")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func runMain(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Cleanup(func() { logger.SetLogger(nil) })
	var stdout, stderr bytes.Buffer
	code := run(append([]string{"png2svg"}, args...), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func paths(doc string) []string {
	var out []string
	for _, line := range strings.Split(doc, "\n") {
		if strings.HasPrefix(line, "<path") {
			out = append(out, line)
		}
	}
	return out
}

func TestRun_SinglePixel(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, red)
	out := filepath.Join(dir, "out.svg")

	code, _, stderr := runMain(t, writePNG(t, dir, img), out)
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	doc := string(data)
	assert.True(t, strings.HasPrefix(doc, `<?xml version="1.0" encoding="UTF-8" standalone="no"?>`+"\n"))
	assert.Contains(t, doc, `<svg width="1" height="1" xmlns="http://www.w3.org/2000/svg" version="1.1">`)
	require.Len(t, paths(doc), 1)
	assert.Contains(t, paths(doc)[0], `d="M 0,0 L 0,1 L 1,1 L 1,0 Z"`)
	assert.Contains(t, paths(doc)[0], `style="fill:rgb(255, 0, 0); fill-opacity:1.000; stroke:none;"`)
	assert.True(t, strings.HasSuffix(doc, "</svg>\n"))
}

func TestRun_Square(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, red)
		}
	}
	in := writePNG(t, dir, img)

	out := filepath.Join(dir, "simple.svg")
	code, _, stderr := runMain(t, in, out)
	require.Equal(t, 0, code, stderr)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Len(t, paths(string(data)), 1)
	assert.Contains(t, paths(string(data))[0], `d="M 0,0 L 0,2 L 2,2 L 2,0 Z"`)

	out = filepath.Join(dir, "full.svg")
	code, _, stderr = runMain(t, "-keep-every-point", in, out)
	require.Equal(t, 0, code, stderr)
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `d="M 0,0 L 0,1 L 0,2 L 1,2 L 2,2 L 2,1 L 2,0 L 1,0 Z"`)
}

func TestRun_RingAroundCentre(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 3, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			img.SetNRGBA(x, y, red)
		}
	}
	img.SetNRGBA(1, 1, blue)
	out := filepath.Join(dir, "out.svg")

	code, _, stderr := runMain(t, "-verify", writePNG(t, dir, img), out)
	require.Equal(t, 0, code, stderr)
	data, err := os.ReadFile(out)
	require.NoError(t, err)

	ps := paths(string(data))
	require.Len(t, ps, 2)
	assert.Contains(t, ps[0], `d="M 0,0 L 0,3 L 3,3 L 3,0 Z M 1,1 L 2,1 L 2,2 L 1,2 Z"`)
	assert.Contains(t, ps[0], "rgb(255, 0, 0)")
	assert.Contains(t, ps[1], `d="M 1,1 L 1,2 L 2,2 L 2,1 Z"`)
	assert.Contains(t, ps[1], "rgb(0, 0, 255)")
}

func TestRun_OpaqueTransparentImage(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	in := writePNG(t, dir, img)

	out := filepath.Join(dir, "opaque.svg")
	code, _, stderr := runMain(t, "-opaque", in, out)
	require.Equal(t, 0, code, stderr)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `<svg width="4" height="3"`)
	assert.Empty(t, paths(string(data)))

	out = filepath.Join(dir, "all.svg")
	code, _, stderr = runMain(t, in, out)
	require.Equal(t, 0, code, stderr)
	data, err = os.ReadFile(out)
	require.NoError(t, err)
	require.Len(t, paths(string(data)), 1)
	assert.Contains(t, paths(string(data))[0], "fill-opacity:0.000")
}

func TestRun_Usage(t *testing.T) {
	for _, args := range [][]string{nil, {"only-one.png"}, {"a", "b", "c"}} {
		code, stdout, _ := runMain(t, args...)
		assert.Equal(t, 0, code)
		assert.Contains(t, stdout, "Usage: png2svg [flags] [Input FILE] [OUT FILE]")
		assert.Contains(t, stdout, "-opaque")
	}
}

func TestRun_BadFlag(t *testing.T) {
	code, _, _ := runMain(t, "-no-such-flag", "a", "b")
	assert.Equal(t, 2, code)
}

func TestRun_DecodeFailure(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(in, []byte("not an image"), 0o644))
	out := filepath.Join(dir, "out.svg")

	code, _, stderr := runMain(t, in, out)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, in+": Could not open as image file")
	assert.NoFileExists(t, out)

	missing := filepath.Join(dir, "missing.png")
	code, _, stderr = runMain(t, missing, out)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, missing+": Could not open as image file")
	assert.NoFileExists(t, out)
}

func randomRaster(rnd *rand.Rand) *image2region.Raster {
	palette := []color.NRGBA{red, blue, {0, 255, 0, 128}, {}, {7, 7, 7, 0}}
	src := image2region.NewRaster(1+rnd.Intn(16), 1+rnd.Intn(16))
	for y := 0; y < src.Height(); y++ {
		for x := 0; x < src.Width(); x++ {
			src.Set(x, y, palette[rnd.Intn(len(palette))])
		}
	}
	return src
}

func TestConvert_RoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for n := 0; n < 50; n++ {
		src := randomRaster(rnd)
		for _, opts := range []options{
			{workers: 1},
			{workers: 1, opaque: true},
			{workers: 1, keepEveryPoint: true},
		} {
			doc, err := convert(src, opts)
			require.NoError(t, err)
			require.NoError(t, verify(doc, src, opts.opaque), "opts %+v", opts)
		}
	}
}

func TestVectorize_SimplifyPreservesArea(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	for n := 0; n < 30; n++ {
		src := randomRaster(rnd)
		full, err := vectorize(src, options{workers: 1, keepEveryPoint: true})
		require.NoError(t, err)
		simple, err := vectorize(src, options{workers: 1})
		require.NoError(t, err)
		require.Len(t, simple, len(full))

		for i := range full {
			assert.Equal(t, full[i].Color, simple[i].Color)
			assert.Equal(t, shapeArea(full[i]), shapeArea(simple[i]))
			assert.LessOrEqual(t, edge2loop.Vertices(simple[i].Loops), edge2loop.Vertices(full[i].Loops))
		}
	}
}

func shapeArea(s p2stypes.Shape) int {
	a := 0
	for _, l := range s.Loops {
		a += edge2loop.Area(l)
	}
	return a
}

func TestConvert_WorkersDeterministic(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	for n := 0; n < 10; n++ {
		src := randomRaster(rnd)
		want, err := convert(src, options{workers: 1})
		require.NoError(t, err)
		for _, w := range []int{0, 2, 8} {
			got, err := convert(src, options{workers: w})
			require.NoError(t, err)
			assert.Equal(t, string(want), string(got), "workers=%d", w)
		}
	}
}

func TestConvertFile_Verify(t *testing.T) {
	dir := t.TempDir()
	rnd := rand.New(rand.NewSource(4))
	src := randomRaster(rnd)
	img := image.NewNRGBA(image.Rect(0, 0, src.Width(), src.Height()))
	for y := 0; y < src.Height(); y++ {
		for x := 0; x < src.Width(); x++ {
			img.SetNRGBA(x, y, src.NRGBAAt(x, y))
		}
	}
	out := filepath.Join(dir, "out.svg")
	require.NoError(t, convertFile(context.Background(), writePNG(t, dir, img), out, options{workers: 4, verify: true}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	doc, err := svg2loop.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, src.Width(), doc.Width)
	assert.Equal(t, src.Height(), doc.Height)
}

func TestRun_VerifyLogsAtInfo(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, blue)
	in := writePNG(t, dir, img)

	code, _, stderr := runMain(t, "-verify", in, filepath.Join(dir, "out.svg"))
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "verified output")
	assert.Contains(t, stderr, "paths=2")
	assert.NotContains(t, stderr, "level=DEBUG")

	code, _, stderr = runMain(t, "-verify", "-v", in, filepath.Join(dir, "out2.svg"))
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "level=DEBUG")
}

func TestTraceRegion(t *testing.T) {
	s, err := traceRegion(p2stypes.Region{
		Color:  red,
		Pixels: []image.Point{{2, 1}},
		Bounds: image.Rect(2, 1, 3, 2),
	}, true)
	require.NoError(t, err)
	assert.Equal(t, red, s.Color)
	require.Len(t, s.Loops, 1)
	assert.Equal(t, []image.Point{{2, 1}, {2, 2}, {3, 2}, {3, 1}}, s.Loops[0].Points())
}

func TestTraceRegion_ErrorNamesRegion(t *testing.T) {
	// 重复像素使边提取失败
	_, err := traceRegion(p2stypes.Region{
		Color:  red,
		Pixels: []image.Point{{2, 1}, {2, 1}},
		Bounds: image.Rect(2, 1, 3, 2),
	}, true)
	require.ErrorIs(t, err, p2stypes.ErrStructural)
	assert.Contains(t, err.Error(), "region at 2,1: ")
}

func TestTraceParallel_LowestIndexError(t *testing.T) {
	trace := func(i int) error {
		if i%7 == 3 {
			return fmt.Errorf("region %d failed", i)
		}
		return nil
	}
	for n := 0; n < 20; n++ {
		for _, workers := range []int{2, 8, 64} {
			assert.EqualError(t, traceParallel(60, workers, trace), "region 3 failed", "workers=%d", workers)
		}
	}
	assert.NoError(t, traceParallel(60, 8, func(int) error { return nil }))
}

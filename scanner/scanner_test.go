package scanner

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagecompare/imageprocessor"
	"imagecompare/logging"
)

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

// fixture creates three valid images, one corrupt image, one text file
// and a subdirectory holding another image
func fixture(t *testing.T) string {
	t.Helper()
	logging.SetOutput(io.Discard, false)
	t.Cleanup(func() { logging.SetOutput(os.Stderr, false) })

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), color.NRGBA{R: 255, A: 255})
	writePNG(t, filepath.Join(dir, "b.PNG"), color.NRGBA{G: 255, A: 255})
	writePNG(t, filepath.Join(dir, "c.jpg"), color.NRGBA{B: 255, A: 255})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	writePNG(t, filepath.Join(dir, "sub", "d.png"), color.NRGBA{A: 255})
	return dir
}

func options(t *testing.T, dir string, filter imageprocessor.ExtensionFilter) ScanOptions {
	t.Helper()
	n, err := imageprocessor.NewNormalizer(4, 4, imageprocessor.DefaultFilter)
	require.NoError(t, err)
	return ScanOptions{
		FolderPath: dir,
		Filter:     filter,
		Normalizer: n,
		MaxWorkers: 2,
	}
}

func names(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func TestListFiles_AllowList(t *testing.T) {
	dir := fixture(t)
	opts := options(t, dir, imageprocessor.NewExtensionFilter(imageprocessor.DefaultExtensions))

	files, stats, err := ListFiles(dir, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.png", "b.PNG", "broken.png", "c.jpg"}, names(files))
	assert.Equal(t, 4, stats.totalFiles)
	assert.Equal(t, 1, stats.skippedFiles)
}

func TestListFiles_AnyFile(t *testing.T) {
	dir := fixture(t)

	files, _, err := ListFiles(dir, options(t, dir, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.PNG", "broken.png", "c.jpg", "notes.txt"}, names(files))
}

func TestListFiles_BadRoot(t *testing.T) {
	dir := t.TempDir()

	_, _, err := ListFiles(filepath.Join(dir, "missing"), ScanOptions{})
	require.Error(t, err)
	assert.True(t, os.IsNotExist(errors.Cause(err)))

	file := filepath.Join(dir, "file.png")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, _, err = ListFiles(file, ScanOptions{})
	assert.True(t, errors.Is(err, ErrNotDirectory))
}

func TestListFiles_RelativeRootGivesAbsolutePaths(t *testing.T) {
	dir := fixture(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	files, _, err := ListFiles(".", options(t, ".", imageprocessor.NewExtensionFilter(imageprocessor.DefaultExtensions)))
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f), f)
	}
	assert.Equal(t, []string{"a.png", "b.PNG", "broken.png", "c.jpg"}, names(files))

	samples, _, err := LoadSamples(context.Background(), files, options(t, ".", nil), nil)
	require.NoError(t, err)
	for _, s := range samples {
		assert.True(t, filepath.IsAbs(s.Path), s.Path)
	}
}

func TestLoadSamples_DropsUndecodable(t *testing.T) {
	dir := fixture(t)
	opts := options(t, dir, imageprocessor.NewExtensionFilter(imageprocessor.DefaultExtensions))
	files, _, err := ListFiles(dir, opts)
	require.NoError(t, err)

	tracker := NewProgressTracker(len(files), opts)
	samples, report, err := LoadSamples(context.Background(), files, opts, tracker)
	tracker.Stop()
	require.NoError(t, err)

	require.Len(t, samples, 3)
	assert.Equal(t, "a.png", samples[0].Name)
	assert.Equal(t, "b.PNG", samples[1].Name)
	assert.Equal(t, "c.jpg", samples[2].Name)
	for _, s := range samples {
		assert.Equal(t, 4, s.Grid.Width)
		assert.Equal(t, 4, s.Grid.Height)
		assert.Positive(t, s.Size)
	}

	assert.Equal(t, 4, report.Found)
	assert.Equal(t, 3, report.Loaded)
	require.NotNil(t, report.Failures)
	assert.Equal(t, 1, report.Failures.Len())

	var de *imageprocessor.DecodeError
	require.True(t, errors.As(report.Failures.Errors[0], &de))
	assert.Equal(t, "broken.png", filepath.Base(de.Path))

	assert.Equal(t, 4, tracker.Processed())
	assert.Equal(t, 1, tracker.Errors())
}

func TestLoadSamples_AnyFileFailsSoft(t *testing.T) {
	dir := fixture(t)
	opts := options(t, dir, nil)
	files, _, err := ListFiles(dir, opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	logging.SetOutput(&buf, true)

	samples, report, err := LoadSamples(context.Background(), files, opts, nil)
	require.NoError(t, err)
	assert.Len(t, samples, 3)
	assert.Equal(t, 2, report.Failures.Len())

	// Any-file mode records the format guessed from each extension
	assert.Contains(t, buf.String(), "Loading a.png as png")
	assert.Contains(t, buf.String(), "Loading notes.txt as unknown")
}

func TestLoadSamples_Cancelled(t *testing.T) {
	dir := fixture(t)
	opts := options(t, dir, nil)
	files, _, err := ListFiles(dir, opts)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = LoadSamples(ctx, files, opts, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoadSamples_RequiresNormalizer(t *testing.T) {
	_, _, err := LoadSamples(context.Background(), []string{"x.png"}, ScanOptions{}, nil)
	assert.Error(t, err)
}

func TestScan_PrintsProgressLines(t *testing.T) {
	dir := fixture(t)
	opts := options(t, dir, imageprocessor.NewExtensionFilter(imageprocessor.DefaultExtensions))

	var out bytes.Buffer
	samples, _, err := Scan(context.Background(), opts, &out)
	require.NoError(t, err)
	assert.Len(t, samples, 3)

	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t,
		"loading from "+abs+"\n"+
			"found 4 files\n"+
			"loaded 4 files, resizing...\n"+
			"resizing done, comparing 3 images\n",
		out.String())
}

func TestScan_ProgressBar(t *testing.T) {
	dir := fixture(t)
	opts := options(t, dir, nil)
	var bar bytes.Buffer
	opts.ShowProgress = true
	opts.ProgressOut = &bar

	_, _, err := Scan(context.Background(), opts, io.Discard)
	require.NoError(t, err)
	assert.NotZero(t, bar.Len())
}

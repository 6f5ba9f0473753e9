package gamectl

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/gamectl/gamectl/internal/imagediff"
	"github.com/gamectl/gamectl/internal/protocol/schema"
)

// UpdateEnv names the environment variable that switches AssertScreenshot
// into reference-recording mode.
const UpdateEnv = "GAMECTL_UPDATE"

// Screenshot captures the full viewport as decoded image data.
func (g *Game) Screenshot(ctx context.Context) (image.Image, error) {
	return g.ScreenshotNode(ctx, "")
}

// ScreenshotNode captures the region rendered by one node. An empty path
// captures the full viewport.
func (g *Game) ScreenshotNode(ctx context.Context, path string) (image.Image, error) {
	payload, err := g.invoke(ctx, schema.CmdCaptureScreenshot, Text(path))
	if err != nil {
		return nil, err
	}
	if len(payload) < 1 || payload[0].Kind() != KindBytes {
		return nil, &RemoteError{Op: "capture.screenshot", Path: path, Reason: "malformed reply"}
	}
	img, err := png.Decode(bytes.NewReader(payload[0].Bytes()))
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return img, nil
}

// SaveScreenshot captures the viewport and writes it as PNG to file.
func (g *Game) SaveScreenshot(ctx context.Context, file string) error {
	img, err := g.Screenshot(ctx)
	if err != nil {
		return err
	}
	return writePNG(file, img)
}

// CompareScreenshot captures the viewport and scores it against the PNG
// reference at refPath. 1.0 means pixel-identical.
func (g *Game) CompareScreenshot(ctx context.Context, refPath string) (float64, error) {
	img, err := g.Screenshot(ctx)
	if err != nil {
		return 0, err
	}
	ref, err := loadPNG(refPath)
	if err != nil {
		return 0, err
	}
	return imagediff.Score(img, ref)
}

// AssertScreenshot captures the viewport and fails unless it scores at
// least threshold against the reference PNG. With UpdateEnv set, the
// capture is written as the new reference instead and the assertion
// passes. On a mismatch the capture is saved next to the reference so
// the failure can be inspected.
func (g *Game) AssertScreenshot(ctx context.Context, refPath string, threshold float64) error {
	img, err := g.Screenshot(ctx)
	if err != nil {
		return err
	}

	if os.Getenv(UpdateEnv) != "" {
		g.log.Info().Str("ref", refPath).Msg("updating screenshot reference")
		return writePNG(refPath, img)
	}

	ref, err := loadPNG(refPath)
	if err != nil {
		return fmt.Errorf("%w (set %s=1 to record it)", err, UpdateEnv)
	}
	score, err := imagediff.Score(img, ref)
	if err != nil {
		return err
	}
	if score >= threshold {
		return nil
	}

	artifact, diffArtifact := failureArtifactPaths(refPath)
	if werr := writePNG(artifact, img); werr != nil {
		g.log.Warn().Err(werr).Msg("could not save failure artifact")
		artifact = ""
	}
	if diff, derr := imagediff.Diff(img, ref); derr == nil {
		if werr := writePNG(diffArtifact, diff); werr != nil {
			g.log.Warn().Err(werr).Msg("could not save diff artifact")
			diffArtifact = ""
		}
	} else {
		diffArtifact = ""
	}
	return &ScreenshotMismatchError{
		Score:        score,
		Threshold:    threshold,
		Reference:    refPath,
		Artifact:     artifact,
		DiffArtifact: diffArtifact,
	}
}

// DiffImage renders the per-pixel absolute difference of two equally
// sized images, black where they agree. Use SaveDiff to write it next to
// a failing reference by hand; AssertScreenshot does both automatically.
func DiffImage(a, b image.Image) (*image.RGBA, error) {
	return imagediff.Diff(a, b)
}

// SaveDiff writes the difference image of a and b as PNG to file.
func SaveDiff(a, b image.Image, file string) error {
	diff, err := imagediff.Diff(a, b)
	if err != nil {
		return err
	}
	return writePNG(file, diff)
}

// failureArtifactPaths derives unique sibling paths for a failed capture
// and its diff image, e.g. menu.png -> menu.failed-1a2b3c4d.png and
// menu.diff-1a2b3c4d.png. The shared suffix pairs the two files.
func failureArtifactPaths(refPath string) (capture, diff string) {
	ext := filepath.Ext(refPath)
	base := strings.TrimSuffix(refPath, ext)
	id := uuid.NewString()[:8]
	return fmt.Sprintf("%s.failed-%s%s", base, id, ext),
		fmt.Sprintf("%s.diff-%s%s", base, id, ext)
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference %s: %w", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode reference %s: %w", path, err)
	}
	return img, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

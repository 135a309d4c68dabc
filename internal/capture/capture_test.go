package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeScreen(displays []image.Rectangle, grabErr error) (*Screen, *image.Rectangle) {
	var grabbed image.Rectangle
	return &Screen{
		numDisplays: func() int { return len(displays) },
		bounds:      func(i int) image.Rectangle { return displays[i] },
		grab: func(r image.Rectangle) (*image.RGBA, error) {
			grabbed = r
			if grabErr != nil {
				return nil, grabErr
			}
			return image.NewRGBA(r), nil
		},
	}, &grabbed
}

func TestCaptureUnionOfDisplays(t *testing.T) {
	s, grabbed := fakeScreen([]image.Rectangle{
		image.Rect(0, 0, 40, 30),
		image.Rect(40, 0, 100, 50),
	}, nil)

	data, err := s.Capture(context.Background())
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 100, 50), *grabbed)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 100, img.Bounds().Dx())
	require.Equal(t, 50, img.Bounds().Dy())
}

func TestCaptureWithoutDisplay(t *testing.T) {
	s, _ := fakeScreen(nil, nil)
	_, err := s.Capture(context.Background())
	require.ErrorIs(t, err, ErrNoDisplay)

	s, _ = fakeScreen([]image.Rectangle{{}}, nil)
	_, err = s.Capture(context.Background())
	require.ErrorIs(t, err, ErrNoDisplay)
}

func TestCaptureGrabFailure(t *testing.T) {
	s, _ := fakeScreen([]image.Rectangle{image.Rect(0, 0, 10, 10)}, errors.New("xgb: no X server"))
	_, err := s.Capture(context.Background())
	require.ErrorContains(t, err, "capture screen: xgb: no X server")
}

func TestCaptureCancelled(t *testing.T) {
	s, _ := fakeScreen([]image.Rectangle{image.Rect(0, 0, 10, 10)}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Capture(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

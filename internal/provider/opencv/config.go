// Package opencv detects faces with an OpenCV Haar cascade through gocv.
// The real detector needs the gocv build tag and a local OpenCV install.
package opencv

import "errors"

// ErrUnavailable is returned when the binary was built without OpenCV support.
var ErrUnavailable = errors.New("opencv detector not compiled in, rebuild with -tags gocv")

// Config holds detectMultiScale parameters.
type Config struct {
	CascadePath  string
	ScaleFactor  float64
	MinNeighbors int
	MinSize      int
}

// DefaultConfig returns the frontal-face parameters the emotion model was trained against.
func DefaultConfig() Config {
	return Config{
		CascadePath:  "haarcascade_frontalface_default.xml",
		ScaleFactor:  1.3,
		MinNeighbors: 5,
		MinSize:      30,
	}
}

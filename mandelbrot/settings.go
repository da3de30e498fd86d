package mandelbrot

import (
	"fmt"
	"image/color"
)

type Settings struct {
	Boundary                float64                   `yaml:"boundary"`
	Columns                 int                       `yaml:"columns"`
	GeneratePaletteSettings []GeneratePaletteSettings `yaml:"generatePaletteSettings"`
	Marker                  string                    `yaml:"marker"`
	MaxColorValue           int                       `yaml:"maxColorValue"`
	MaxIterations           int                       `yaml:"maxIterations"`
	Palette                 []int                     `yaml:"palette"`
	Rows                    int                       `yaml:"rows"`
	XMax                    float64                   `yaml:"xMax"`
	XMin                    float64                   `yaml:"xMin"`
	YMax                    float64                   `yaml:"yMax"`
	YMin                    float64                   `yaml:"yMin"`
}

// DefaultSettings is the 90x50 view of the whole set drawn in a 256 color terminal.
func DefaultSettings() Settings {
	s := Settings{}
	s.Verify()
	return s
}

func (s *Settings) String() string {
	output := "\nMandelbrot settings\n"
	output += fmt.Sprintf("Boundary: %f\n", s.Boundary)
	output += fmt.Sprintf("Columns: %d\n", s.Columns)
	output += fmt.Sprintf("Marker: %q\n", s.Marker)
	output += fmt.Sprintf("Max Color Value: %d\n", s.MaxColorValue)
	output += fmt.Sprintf("Max Iterations: %d\n", s.MaxIterations)
	output += fmt.Sprintf("Palette Size: %d\n", len(s.Palette))
	output += fmt.Sprintf("Rows: %d\n", s.Rows)
	output += fmt.Sprintf("X: [%f, %f]\n", s.XMin, s.XMax)
	output += fmt.Sprintf("Y: [%f, %f]\n", s.YMin, s.YMax)
	return output
}

// Verify fills in defaults for anything left unset. It rejects markers longer than one byte and palette
// entries that are not xterm colors.
func (s *Settings) Verify() error {
	if s.Boundary <= 0 {
		s.Boundary = 4
	}
	if s.Columns <= 0 {
		s.Columns = 90
	}
	if len(s.GeneratePaletteSettings) > 0 {
		s.Palette = make([]int, 0)
		for i := 0; i < len(s.GeneratePaletteSettings); i++ {
			s.Palette = append(s.Palette, s.GeneratePaletteSettings[i].GeneratePalette()...)
		}
	}
	if s.Marker == "" {
		s.Marker = "@"
	}
	if s.MaxColorValue <= 0 {
		s.MaxColorValue = 255
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = 100000
	}
	if s.Rows <= 0 {
		s.Rows = 50
	}
	if s.XMin >= s.XMax {
		s.XMin, s.XMax = -1.8, 1.0
	}
	if s.YMin >= s.YMax {
		s.YMin, s.YMax = -1.0, 1.0
	}

	if len(s.Marker) != 1 {
		return fmt.Errorf("marker %q must be a single byte", s.Marker)
	}
	for i, code := range s.Palette {
		if code < 0 || code >= XtermColors {
			return fmt.Errorf("palette entry %d is %d, xterm colors are [0, %d)", i, code, XtermColors)
		}
	}

	return nil
}

// XStep is the width of one character on the complex plane.
func (s *Settings) XStep() float64 {
	return (s.XMax - s.XMin) / float64(s.Columns)
}

// YStep is the height of one character on the complex plane.
func (s *Settings) YStep() float64 {
	return (s.YMax - s.YMin) / float64(s.Rows)
}

type GeneratePaletteSettings struct {
	StartColor   color.RGBA `yaml:"startColor"`
	EndColor     color.RGBA `yaml:"endColor"`
	NumberColors int        `yaml:"numberColors"`
}

package mandelbrot

// PixelFunc returns the escape iteration count of the point (x, y).
type PixelFunc func(x float64, y float64, maxIterations int) int

// ColorFunc maps an iteration count onto an xterm color code.
type ColorFunc func(iterations int) int

type Mandelbrot struct {
	settings Settings

	colorOf      ColorFunc
	iterationsAt PixelFunc
}

func NewMandelbrot(settings Settings) Mandelbrot {
	mandelbrot := Mandelbrot{
		settings: settings,
	}
	mandelbrot.colorOf = mandelbrot.ColorOf
	mandelbrot.iterationsAt = mandelbrot.IterationsAt

	return mandelbrot
}

// WithCollaborators returns a copy of m that computes rows with the given pixel and color functions.
// A nil function keeps the built in one.
func (m Mandelbrot) WithCollaborators(iterationsAt PixelFunc, colorOf ColorFunc) Mandelbrot {
	if iterationsAt != nil {
		m.iterationsAt = iterationsAt
	}
	if colorOf != nil {
		m.colorOf = colorOf
	}
	return m
}

func (m Mandelbrot) Settings() Settings {
	return m.settings
}

// NewRowBuffer allocates a buffer large enough for one row of color codes.
func (m Mandelbrot) NewRowBuffer() []int {
	return make([]int, m.settings.Columns)
}

// ComputeRow fills codes with the color of every column of the given row. It touches no shared state
// so any number of goroutines may call it at once.
func (m Mandelbrot) ComputeRow(row int, codes []int) {
	xStep := m.settings.XStep()
	y := m.settings.YMax - m.settings.YStep()*float64(row)

	for n := 0; n < m.settings.Columns; n++ {
		x := m.settings.XMin + xStep*float64(n)

		iterations := m.iterationsAt(x, y, m.settings.MaxIterations)
		if iterations > m.settings.MaxColorValue {
			iterations = m.settings.MaxColorValue
		}
		codes[n] = m.colorOf(iterations)
	}
}

// https://en.wikipedia.org/wiki/Plotting_algorithms_for_the_Mandelbrot_set#Optimized_escape_time_algorithms
func (m Mandelbrot) IterationsAt(x float64, y float64, maxIterations int) int {
	x1, y1, x2, y2 := 0.0, 0.0, 0.0, 0.0
	iteration := 0
	period, oldX, oldY := 0, 0.0, 0.0
	for (x2+y2) <= m.settings.Boundary && iteration < maxIterations {
		y1 = 2*x1*y1 + y
		x1 = x2 - y2 + x
		x2 = x1 * x1
		y2 = y1 * y1
		iteration++

		// periodicity checking cuts short points inside the set when maxIterations is large
		// https://en.wikipedia.org/wiki/Plotting_algorithms_for_the_Mandelbrot_set#Periodicity_checking
		if x1 == oldX && y1 == oldY {
			return maxIterations
		}

		period++
		if period > 20 {
			period = 0
			oldX = x1
			oldY = y1
		}
	}

	return iteration
}

// ColorOf walks the palette when one is configured and the xterm color cube otherwise.
// The result is always a valid xterm color.
func (m Mandelbrot) ColorOf(iterations int) int {
	if iterations < 0 {
		iterations = 0
	}
	if len(m.settings.Palette) > 0 {
		return m.settings.Palette[iterations%len(m.settings.Palette)]
	}
	return cubeOffset + iterations%cubeSize
}

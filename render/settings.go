package render

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"mandelbrot/mandelbrot"
	"mandelbrot/misc"
)

type Settings struct {
	DisplayAddress     string              `yaml:"displayAddress"`
	MandelbrotSettings mandelbrot.Settings `yaml:"mandelbrotSettings"`
	OutputFile         string              `yaml:"outputFile"`
	ProgressSeconds    int                 `yaml:"progressSeconds"`
	RunID              string              `yaml:"runID"`
	RunName            string              `yaml:"runName"`
	TraceFile          string              `yaml:"traceFile"`
	Verbose            bool                `yaml:"verbose"`
	Workers            int                 `yaml:"workers"`
}

// NewSettings reads settingsFile as YAML or JSON depending on its extension. An empty name gives the
// defaults. The worker count is left to the caller and checked when rendering starts.
func NewSettings(settingsFile string) (Settings, error) {
	s := Settings{}
	if settingsFile != "" {
		fileBytes, err := misc.ReadFile(settingsFile)
		if err != nil {
			return s, err
		}

		switch strings.ToLower(filepath.Ext(settingsFile)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(fileBytes, &s)
		default:
			err = json.Unmarshal(fileBytes, &s)
		}
		if err != nil {
			return s, fmt.Errorf("unable to parse %s - %w", settingsFile, err)
		}
	}

	if err := s.Verify(); err != nil {
		return s, err
	}
	return s, nil
}

func (s *Settings) String() string {
	output := "\nRender settings\n"
	output += fmt.Sprintf("Display Address: %s\n", s.DisplayAddress)
	output += fmt.Sprintf("Output File: %s\n", s.OutputFile)
	output += fmt.Sprintf("Progress Seconds: %d\n", s.ProgressSeconds)
	output += fmt.Sprintf("Run ID: %s\n", s.RunID)
	output += fmt.Sprintf("Run Name: %s\n", s.RunName)
	output += fmt.Sprintf("Trace File: %s\n", s.TraceFile)
	output += fmt.Sprintf("Workers: %d", s.Workers)
	output += s.MandelbrotSettings.String()
	return output
}

func (s *Settings) Verify() error {
	if err := s.MandelbrotSettings.Verify(); err != nil {
		return err
	}
	if s.ProgressSeconds <= 0 {
		s.ProgressSeconds = 30
	}
	if s.RunID == "" {
		s.RunID = uuid.New().String()
	}
	if s.RunName == "" {
		s.RunName = "run_" + time.Now().Format("2006_01_02-03_04_05")
	}
	// s.Verbose defaults to false already
	return nil
}

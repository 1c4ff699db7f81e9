package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/vizier/internal/exercise"
	"github.com/verte-zerg/vizier/internal/model"
	"github.com/verte-zerg/vizier/internal/profile"
	"github.com/verte-zerg/vizier/internal/render"
	"github.com/verte-zerg/vizier/internal/stimulus"
	"github.com/verte-zerg/vizier/internal/surface"
	"github.com/verte-zerg/vizier/internal/theme"
)

const (
	defaultExportPath   = "stimulus.png"
	defaultExportScale  = 4
	defaultExportOffset = 4
	defaultFontSize     = 13
)

var (
	exportOut       string
	exportSize      int
	exportPixel     int
	exportFocal     float64
	exportFocalOff  int
	exportOffset    int
	exportScale     int
	exportNoCaption bool
	exportFont      string
	exportFontSize  float64
)

func newExportCmd() *cobra.Command {
	defaults := exercise.DefaultAnaglyphParams()
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write one stereogram as a PNG",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", defaultExportPath, "output file")
	cmd.Flags().IntVar(&exportSize, "size", defaults.Size, "stereogram side in canvas pixels")
	cmd.Flags().IntVar(&exportPixel, "pixel-size", defaults.PixelSize, "dot size in canvas pixels")
	cmd.Flags().Float64Var(&exportFocal, "focal-size", defaults.FocalSize, "focal target size ratio (0-1)")
	cmd.Flags().IntVar(&exportFocalOff, "focal-offset", defaults.FocalOffset, "focal target disparity")
	cmd.Flags().IntVar(&exportOffset, "offset", defaultExportOffset, "background disparity")
	cmd.Flags().IntVar(&exportScale, "scale", defaultExportScale, "canvas pixels are multiplied by this factor")
	cmd.Flags().BoolVar(&exportNoCaption, "no-caption", false, "omit the answer caption")
	cmd.Flags().StringVar(&exportFont, "font", "", "TTF font for the caption (default: built-in)")
	cmd.Flags().Float64Var(&exportFontSize, "font-size", defaultFontSize, "caption font size")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	applyIntConfig(cmd, "size", &exportSize, a.fileCfg.Anaglyph.Size)
	applyIntConfig(cmd, "pixel-size", &exportPixel, a.fileCfg.Anaglyph.PixelSize)
	applyFloatConfig(cmd, "focal-size", &exportFocal, a.fileCfg.Anaglyph.FocalSize)
	applyIntConfig(cmd, "focal-offset", &exportFocalOff, a.fileCfg.Anaglyph.FocalOffset)
	if exportScale <= 0 {
		return fmt.Errorf("--scale must be > 0")
	}

	cal, err := exportCalibration(cmd, a)
	if err != nil {
		return err
	}

	spec := stimulus.Spec{
		Size:             exportSize * exportScale,
		PixelSize:        exportPixel * exportScale,
		FocalSizeRatio:   exportFocal,
		BackgroundOffset: exportOffset,
		FocalOffset:      exportFocalOff,
		LeftColor:        cal.Left,
		RightColor:       cal.Right,
	}
	margin := spec.Size / 8
	width := spec.Size + 2*margin + 2*abs(exportOffset)*spec.PixelSize
	height := spec.Size + 2*margin
	spec = spec.Centered(width, height)

	st, err := stimulus.NewGenerator(appSeed).Generate(spec)
	if err != nil {
		return err
	}
	canvas := surface.NewCanvas(width, height)
	if err := stimulus.Render(canvas, st); err != nil {
		return err
	}
	if err := canvas.Show(st.ID()); err != nil {
		return err
	}

	export := render.Export{Image: render.Raster(canvas)}
	if !exportNoCaption {
		face, err := render.LoadFontFace(exportFont, exportFontSize)
		if err != nil {
			return err
		}
		export.Face = face
		export.Caption = fmt.Sprintf("answer: %s   offset: %d", st.Answer(), exportOffset)
	}
	if err := export.WritePNG(exportOut); err != nil {
		return err
	}
	a.log.Info("stimulus exported", "path", exportOut, "stimulus_id", st.ID(), "offset", exportOffset)
	logErrf("Wrote %s\n", exportOut)
	return nil
}

// exportCalibration uses the active patient's colors when there is one.
func exportCalibration(cmd *cobra.Command, a *app) (model.Calibration, error) {
	pc, err := a.activate(cmd.Context(), cmd)
	if errors.Is(err, profile.ErrNoUser) {
		pc, err = profile.Context{Calibration: theme.DefaultCalibration()}.WithOverrides(
			profile.Overrides{Left: a.fileCfg.Colors.Left, Right: a.fileCfg.Colors.Right})
	}
	if err != nil {
		return model.Calibration{}, err
	}
	return pc.Calibration, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Package cli contains the voxelmesh command line application.
package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/voxelmesh"
	"go.viam.com/voxelmesh/logging"
	"go.viam.com/voxelmesh/mesh"
)

const (
	configFlag    = "config"
	voxelSizeFlag = "voxel-size"
	maxPointsFlag = "max-points"
	maxDepthFlag  = "max-depth"
	outFlag       = "out"
	debugFlag     = "debug"
	quietFlag     = "quiet"
	timeoutFlag   = "timeout"

	stepLoad     = "load"
	stepGenerate = "generate"
	stepWrite    = "write"
)

// NewApp returns the voxelmesh app writing results to out and progress to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return newApp(out, errOut, defaultSpinnerFactory)
}

func newApp(out, errOut io.Writer, spinners progressSpinnerFactory) *cli.App {
	return &cli.App{
		Name:            "voxelmesh",
		Usage:           "turn point clouds into voxel box meshes",
		UsageText:       "voxelmesh [options] <file or url>",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.PathFlag{
				Name:    configFlag,
				Aliases: []string{"c"},
				Usage:   "JSON generator configuration; other flags override it",
			},
			&cli.Float64Flag{
				Name:  voxelSizeFlag,
				Usage: "minimum edge length of every voxel box",
				Value: voxelmesh.DefaultVoxelSize,
			},
			&cli.IntFlag{
				Name:  maxPointsFlag,
				Usage: "most points a leaf may hold before it is split",
			},
			&cli.IntFlag{
				Name:  maxDepthFlag,
				Usage: "deepest level the octree may split to",
			},
			&cli.PathFlag{
				Name:    outFlag,
				Aliases: []string{"o"},
				Usage:   "PLY file to write; defaults to the input name with a .mesh.ply extension",
			},
			&cli.DurationFlag{
				Name:  timeoutFlag,
				Usage: "give up loading and generating after this long",
			},
			&cli.BoolFlag{
				Name:  debugFlag,
				Usage: "enable debug logging",
			},
			&cli.BoolFlag{
				Name:    quietFlag,
				Aliases: []string{"q"},
				Usage:   "hide progress output",
			},
		},
		Action: func(c *cli.Context) error {
			return convertAction(c, spinners)
		},
	}
}

func convertAction(c *cli.Context, spinners progressSpinnerFactory) error {
	if c.NArg() != 1 {
		return errors.New("expected exactly one point cloud file or url")
	}
	input := c.Args().First()

	logger := logging.NewBlankLogger("voxelmesh")
	if c.Bool(debugFlag) {
		logger = logging.NewDebugLogger("voxelmesh")
	}

	gen, err := generatorFromFlags(c, logger)
	if err != nil {
		return err
	}

	ctx := c.Context
	if timeout := c.Duration(timeoutFlag); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	outPath := c.Path(outFlag)
	if outPath == "" {
		outPath = defaultOutputPath(input)
	}

	pm := NewProgressManager(c.App.ErrWriter, []*Step{
		{ID: stepLoad, Message: "Loading " + input},
		{ID: stepGenerate, Message: "Generating voxel mesh"},
		{ID: stepWrite, Message: "Writing " + outPath},
	}, WithProgressOutput(!c.Bool(quietFlag)), withProgressSpinnerFactory(spinners))
	defer pm.Stop()
	gen.SetProgressObserver(pm)

	if err := pm.Start(stepLoad); err != nil {
		return err
	}
	tree, err := gen.LoadOctree(ctx, input)
	if err != nil {
		return failStep(pm, stepLoad, err)
	}
	if err := pm.Complete(stepLoad, fmt.Sprintf("Loaded %d points", tree.Size())); err != nil {
		return err
	}

	if err := pm.Start(stepGenerate); err != nil {
		return err
	}
	m, err := gen.GenerateMesh(ctx, tree)
	if err != nil {
		return failStep(pm, stepGenerate, err)
	}
	voxels := m.Geometry.VertexCount() / mesh.BoxVertexCount
	if err := pm.Complete(stepGenerate,
		fmt.Sprintf("Generated %d voxels, %d triangles", voxels, m.Geometry.TriangleCount())); err != nil {
		return err
	}

	if err := pm.Start(stepWrite); err != nil {
		return err
	}
	if err := writeMeshFile(outPath, m); err != nil {
		return failStep(pm, stepWrite, err)
	}
	if err := pm.Complete(stepWrite, ""); err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, outPath)
	return err
}

func failStep(pm *ProgressManager, stepID string, err error) error {
	return multierr.Combine(err, pm.Fail(stepID, err))
}

// generatorFromFlags builds a generator from the config file, if any, then applies flags the user
// set explicitly on top of it.
func generatorFromFlags(c *cli.Context, logger logging.Logger) (*voxelmesh.Generator, error) {
	cfg := &voxelmesh.Config{}
	if configPath := c.Path(configFlag); configPath != "" {
		var err error
		if cfg, err = voxelmesh.ReadConfig(configPath); err != nil {
			return nil, err
		}
	}
	if c.IsSet(voxelSizeFlag) {
		size := c.Float64(voxelSizeFlag)
		cfg.VoxelSize = &size
	}
	if c.IsSet(maxPointsFlag) {
		maxPoints := c.Int(maxPointsFlag)
		cfg.MaxPoints = &maxPoints
	}
	if c.IsSet(maxDepthFlag) {
		depth := c.Int(maxDepthFlag)
		cfg.MaxDepth = &depth
	}
	if c.Bool(debugFlag) {
		cfg.LogLevel = logging.DEBUG.String()
	}
	return voxelmesh.NewGeneratorFromConfig(cfg, logger)
}

// defaultOutputPath names the output after the last path element of input, placed in the working
// directory for urls and next to the input for local files.
func defaultOutputPath(input string) string {
	name := input
	if strings.Contains(input, "://") {
		if u, err := url.Parse(input); err == nil {
			name = path.Base(u.Path)
			if u.Scheme == "file" {
				name = u.Path
			}
		}
	}
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" || base == "/" || base == "." {
		base = "voxelmesh"
	}
	return base + ".mesh.ply"
}

func writeMeshFile(outPath string, m *mesh.Mesh) (err error) {
	//nolint:gosec
	f, err := os.Create(outPath)
	if err != nil {
		return errors.Wrap(err, "cannot create output file")
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return mesh.WritePLY(f, m)
}

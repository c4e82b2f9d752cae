// Command heatdemo renders a heatmap to an image file, from either a
// CSV point file or a synthetic cluster distribution.
//
// Usage:
//
//	heatdemo --points 500 --out heat.png
//	heatdemo --csv samples.csv --backend software --out heat.tiff
//
// CSV rows are "x,y,value" with an optional fourth "radius" column.
package main

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/gogpu/heat"
	_ "github.com/gogpu/heat/gpu"
)

var cli struct {
	Width   int    `help:"Surface width in pixels." default:"800"`
	Height  int    `help:"Surface height in pixels." default:"600"`
	Out     string `help:"Output image path." default:"heat.png" short:"o"`
	Format  string `help:"Snapshot format (png, jpeg, bmp, tiff)." default:"png"`
	Quality int    `help:"JPEG quality (1-100)." default:"90"`

	Backend string  `help:"Rendering backend (auto, software, gpu)." default:"auto"`
	Radius  int     `help:"Default point radius in pixels." default:"40"`
	Blur    float64 `help:"Blur factor in [0,1]." default:"0.85"`

	CSV    string `help:"Read points from a CSV file (x,y,value[,radius])." type:"existingfile" optional:""`
	Points int    `help:"Number of synthetic points when no CSV is given." default:"400"`
	Seed   int64  `help:"Seed for the synthetic distribution." default:"1"`

	Verbose bool `help:"Enable debug logging." short:"v"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("heatdemo"),
		kong.Description("Render a heatmap to an image file."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(run())
}

func run() error {
	if cli.Verbose {
		heat.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	opts := []heat.Option{
		heat.WithRadius(cli.Radius),
		heat.WithBlur(cli.Blur),
	}
	if cli.Backend != "auto" {
		opts = append(opts, heat.WithBackend(cli.Backend))
	}

	hm, err := heat.New(cli.Width, cli.Height, opts...)
	if err != nil {
		return fmt.Errorf("create heatmap: %w", err)
	}
	defer hm.Close()

	var points []heat.Point
	if cli.CSV != "" {
		points, err = loadCSV(cli.CSV)
		if err != nil {
			return err
		}
	} else {
		points = syntheticPoints(cli.Points, cli.Width, cli.Height, cli.Seed)
	}

	if err := hm.SetPoints(points); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	data, err := hm.Snapshot(cli.Format, cli.Quality)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cli.Out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", cli.Out, err)
	}

	minV, maxV := hm.Extrema()
	fmt.Printf("rendered %d points (values %.3g..%.3g) to %s\n",
		len(points), minV, maxV, cli.Out)
	return nil
}

// loadCSV parses "x,y,value[,radius]" rows. Blank lines and a header
// row starting with "x" are skipped.
func loadCSV(path string) ([]heat.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	points := make([]heat.Point, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			continue
		}
		if i == 0 && row[0] == "x" {
			continue
		}
		x, errX := strconv.ParseFloat(row[0], 64)
		y, errY := strconv.ParseFloat(row[1], 64)
		v, errV := strconv.ParseFloat(row[2], 64)
		if errX != nil || errY != nil || errV != nil {
			return nil, fmt.Errorf("%s: bad row %d: %q", path, i+1, row)
		}
		p := heat.Point{X: x, Y: y, Value: v}
		if len(row) >= 4 && row[3] != "" {
			radius, err := strconv.Atoi(row[3])
			if err != nil {
				return nil, fmt.Errorf("%s: bad radius on row %d: %q", path, i+1, row[3])
			}
			p.Radius = radius
		}
		points = append(points, p)
	}
	return points, nil
}

// syntheticPoints generates n points in a few gaussian clusters, with
// values falling off from each cluster center.
func syntheticPoints(n, w, h int, seed int64) []heat.Point {
	rng := rand.New(rand.NewSource(seed))

	const clusters = 4
	centers := make([][2]float64, clusters)
	for i := range centers {
		centers[i] = [2]float64{
			(0.2 + 0.6*rng.Float64()) * float64(w),
			(0.2 + 0.6*rng.Float64()) * float64(h),
		}
	}

	sigma := 0.08 * math.Min(float64(w), float64(h))
	points := make([]heat.Point, 0, n)
	for i := 0; i < n; i++ {
		c := centers[rng.Intn(clusters)]
		x := c[0] + rng.NormFloat64()*sigma
		y := c[1] + rng.NormFloat64()*sigma
		d := math.Hypot(x-c[0], y-c[1])
		points = append(points, heat.Point{
			X:     x,
			Y:     y,
			Value: math.Max(0.1, 1-(d/(3*sigma))),
		})
	}
	return points
}

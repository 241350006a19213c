package export

import (
	"fmt"

	"gonum.org/v1/plot"

	"github.com/florianHoidn/rl-drone-env/internal/storage"
)

// ColumnsPlot plots the named columns of a stored run against time.
func ColumnsPlot(title string, table *storage.Table, columns ...string) (*plot.Plot, error) {
	t, err := table.Column("t")
	if err != nil {
		return nil, err
	}
	series := make([]Series, 0, len(columns))
	for _, name := range columns {
		y, err := table.Column(name)
		if err != nil {
			return nil, err
		}
		series = append(series, Series{Label: name, X: t, Y: y})
	}
	return LinePlot(title, "t (s)", "", series...)
}

// GroundTrackPlot is the top view of a stored run: py against px.
func GroundTrackPlot(title string, table *storage.Table) (*plot.Plot, error) {
	x, err := table.Column("px")
	if err != nil {
		return nil, err
	}
	y, err := table.Column("py")
	if err != nil {
		return nil, err
	}
	if len(x) == 0 {
		return nil, fmt.Errorf("empty trajectory")
	}
	return LinePlot(title, "x (m)", "y (m)", Series{Label: "track", X: x, Y: y})
}

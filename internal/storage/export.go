package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/walkgen/internal/dynamo"
)

type ExportData struct {
	Run       RunMetadata           `json:"run"`
	Times     []float64             `json:"times"`
	CoM       []dynamo.CoMState     `json:"com"`
	ZMP       []dynamo.ZMPSample    `json:"zmp"`
	Footsteps []dynamo.FootPosition `json:"footsteps"`
}

// ExportJSON writes a whole run as one JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, result *dynamo.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{
		Run:       meta,
		Times:     result.Times,
		CoM:       result.CoM,
		ZMP:       result.ZMP,
		Footsteps: result.Footsteps,
	})
}

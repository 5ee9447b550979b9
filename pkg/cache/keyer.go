package cache

import "fmt"

// Keyer builds cache keys for each pipeline stage.
type Keyer interface {
	// GraphKey identifies the view graph of a dataset in one mode.
	GraphKey(datasetHash, mode string) string

	// LayoutKey identifies a positioned graph.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string

	// ArtifactKey identifies a rendered output.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts holds the options that change a layout.
type LayoutKeyOpts struct {
	Engine   string  `json:"engine"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Seed     uint64  `json:"seed"`
	PinsHash string  `json:"pins_hash,omitempty"`
}

// ArtifactKeyOpts holds the options that change a rendered output.
type ArtifactKeyOpts struct {
	Format      string  `json:"format"`
	Scale       float64 `json:"scale,omitempty"`
	API         string  `json:"api,omitempty"`
	DatasetHash string  `json:"dataset_hash,omitempty"` // set for outputs that embed more than the layout

}

// DefaultKeyer hashes stage options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// GraphKey returns "graph:<mode>:<dataset hash>".
func (DefaultKeyer) GraphKey(datasetHash, mode string) string {
	return fmt.Sprintf("graph:%s:%s", mode, datasetHash)
}

// LayoutKey returns "layout:<hash of graph hash and options>".
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}

// ArtifactKey returns "artifact:<hash of layout hash and options>".
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}

package pipeline

import (
	"context"

	"github.com/matzehuels/linkatlas/pkg/atlas"
	"github.com/matzehuels/linkatlas/pkg/dataset"
	"github.com/matzehuels/linkatlas/pkg/observability"
)

// EmbeddedSource names the built-in dataset in logs and hooks.
const EmbeddedSource = "embedded"

// LoadDataset reads and builds the dataset at path, or the embedded dataset
// when path is empty. It returns the atlas and the dataset fingerprint.
func LoadDataset(ctx context.Context, path string) (*atlas.Atlas, string, error) {
	source := sourceName(path)

	var (
		doc dataset.Document
		err error
	)
	if path == "" {
		doc = dataset.DefaultDocument()
	} else {
		doc, err = dataset.ReadFile(path)
	}
	if err != nil {
		observability.Pipeline().OnDatasetLoad(ctx, source, 0, 0, err)
		return nil, "", err
	}

	a, err := dataset.Build(doc)
	if err != nil {
		observability.Pipeline().OnDatasetLoad(ctx, source, 0, 0, err)
		return nil, "", err
	}
	st := a.Stats()
	observability.Pipeline().OnDatasetLoad(ctx, source, st.Artifacts, st.Majors+st.Minors, nil)
	return a, dataset.Fingerprint(doc), nil
}

func sourceName(path string) string {
	if path == "" {
		return EmbeddedSource
	}
	return path
}

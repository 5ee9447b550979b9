package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/linkatlas/pkg/atlas"
	"github.com/matzehuels/linkatlas/pkg/errors"
	"github.com/matzehuels/linkatlas/pkg/graph"
	"github.com/matzehuels/linkatlas/pkg/observability"
	"github.com/matzehuels/linkatlas/pkg/render"
	"github.com/matzehuels/linkatlas/pkg/render/nodelink"
	"github.com/matzehuels/linkatlas/pkg/render/web"
	"github.com/matzehuels/linkatlas/pkg/view"
)

// RenderFromLayout generates output artifacts in the requested formats.
//
// The HTML page embeds both detail levels, so it needs the atlas; every
// other format only reads the layout.
func RenderFromLayout(ctx context.Context, a *atlas.Atlas, l graph.Layout, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	artifacts, err := renderFormats(ctx, a, l, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	return artifacts, err
}

func renderFormats(ctx context.Context, a *atlas.Atlas, l graph.Layout, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))

	// svg, png and pdf share one Graphviz run.
	var svg []byte
	svgOnce := func() ([]byte, error) {
		if svg != nil {
			return svg, nil
		}
		if l.DOT == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "layout has no DOT drawing")
		}
		var err error
		svg, err = nodelink.RenderSVG(ctx, l.DOT, SVGEngine(l))
		return svg, err
	}

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			data, err = svgOnce()
		case FormatDOT:
			if l.DOT == "" {
				err = errors.New(errors.ErrCodeInvalidInput, "layout has no DOT drawing")
			}
			data = []byte(l.DOT)
		case FormatJSON:
			data, err = graph.MarshalLayout(l)
		case FormatHTML:
			data, err = renderHTML(a, l, opts)
		case FormatPNG:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPNG(ctx, data, opts.Scale)
			}
		case FormatPDF:
			if data, err = svgOnce(); err == nil {
				data, err = render.ToPDF(ctx, data)
			}
		default:
			err = ValidateFormat(format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

func renderHTML(a *atlas.Atlas, l graph.Layout, opts Options) ([]byte, error) {
	if a == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "html output needs the dataset")
	}
	mode := l.Mode
	if mode == "" {
		mode = opts.Mode
	}
	return web.Render(web.Page{
		Title:     opts.Title,
		Width:     int(l.Width),
		Height:    int(l.Height),
		Mode:      mode,
		Detailed:  view.Build(a, view.Detailed),
		Collapsed: view.Build(a, view.Collapsed),
		Positions: l.Positions,
		API:       opts.API,
	})
}

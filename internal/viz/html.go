package viz

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

var compiledTemplate = template.Must(template.New("viz").Parse(htmlTemplate))

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Layout string // "force", "circle", "grid" or "concentric"
	Title  string

	// Offline inlines CytoscapeJS instead of loading it from a CDN.
	Offline     bool
	CytoscapeJS string

	// Directed draws arrow heads on edges.
	Directed bool
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{Layout: "force", Title: "bibnet graph"}
}

// GenerateHTML generates a self-contained HTML page for the graph.
func GenerateHTML(graph *GraphData, opts HTMLOptions) (string, error) {
	if graph == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}
	layout, err := layoutToCytoscape(opts.Layout)
	if err != nil {
		return "", err
	}
	if opts.Offline && strings.TrimSpace(opts.CytoscapeJS) == "" {
		return "", fmt.Errorf("offline mode needs the Cytoscape.js source")
	}
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}

	graphJSON, err := graph.ToCytoscapeJSON()
	if err != nil {
		return "", err
	}

	sizeLo, sizeHi := graph.sizeRange()
	weightLo, weightHi := graph.weightRange()
	if sizeHi <= sizeLo {
		sizeHi = sizeLo + 1
	}
	if weightHi <= weightLo {
		weightHi = weightLo + 1
	}

	data := templateData{
		Title:     opts.Title,
		GraphJSON: template.JS(graphJSON),
		Layout:    layout,
		Empty:     graph.IsEmpty(),
		Arrow:     "none",
		SizeLo:    sizeLo,
		SizeHi:    sizeHi,
		WeightLo:  weightLo,
		WeightHi:  weightHi,
	}
	if opts.Directed {
		data.Arrow = "triangle"
	}
	if opts.Offline {
		data.ScriptTag = template.HTML("<script>" + opts.CytoscapeJS + "</script>")
	} else {
		data.ScriptTag = template.HTML(`<script src="https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"></script>`)
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type templateData struct {
	Title     string
	ScriptTag template.HTML
	GraphJSON template.JS
	Layout    string
	Empty     bool
	Arrow     string
	SizeLo    float64
	SizeHi    float64
	WeightLo  float64
	WeightHi  float64
}

// layoutToCytoscape converts layout names to Cytoscape.js algorithm names.
func layoutToCytoscape(layout string) (string, error) {
	switch layout {
	case "", "force":
		return "cose", nil
	case "circle", "grid", "concentric":
		return layout, nil
	default:
		return "", fmt.Errorf("invalid layout %q: must be force, circle, grid or concentric", layout)
	}
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  {{.ScriptTag}}
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      background: #f5f5f5;
    }
    #cy {
      width: 100%;
      height: 100vh;
      background: white;
    }
    #empty {
      display: flex;
      justify-content: center;
      align-items: center;
      height: 100vh;
      color: #666;
    }
    #tooltip {
      position: absolute;
      display: none;
      background: white;
      border: 1px solid #ccc;
      border-radius: 4px;
      padding: 8px 12px;
      box-shadow: 0 2px 8px rgba(0,0,0,0.15);
      max-width: 320px;
      font-size: 13px;
      pointer-events: none;
    }
  </style>
</head>
<body>
{{if .Empty}}
  <div id="empty"><p>No nodes to draw. Check that the node table has an <code>id</code> column.</p></div>
{{else}}
  <div id="cy"></div>
  <div id="tooltip"></div>
  <script>
    (function() {
      const cy = cytoscape({
        container: document.getElementById('cy'),
        elements: {{.GraphJSON}},
        style: [
          {
            selector: 'node',
            style: {
              'background-color': '#4A90D9',
              'label': 'data(label)',
              'font-size': '10px',
              'color': '#333',
              'text-valign': 'bottom',
              'text-margin-y': '4px',
              'width': 'mapData(size, {{.SizeLo}}, {{.SizeHi}}, 16, 64)',
              'height': 'mapData(size, {{.SizeLo}}, {{.SizeHi}}, 16, 64)'
            }
          },
          {
            selector: 'edge',
            style: {
              'line-color': '#95A5A6',
              'target-arrow-color': '#95A5A6',
              'target-arrow-shape': '{{.Arrow}}',
              'curve-style': 'bezier',
              'opacity': 0.8,
              'width': 'mapData(weight, {{.WeightLo}}, {{.WeightHi}}, 1, 10)'
            }
          },
          { selector: 'node.highlighted', style: { 'border-width': 3, 'border-color': '#ff6b6b' } },
          { selector: '.dimmed', style: { 'opacity': 0.2 } }
        ],
        layout: { name: '{{.Layout}}', animate: false, nodeRepulsion: 8000, idealEdgeLength: 100 }
      });

      const tooltip = document.getElementById('tooltip');
      function escapeHtml(str) {
        return String(str).replace(/&/g, '&amp;').replace(/</g, '&lt;').replace(/>/g, '&gt;');
      }
      function show(evt, html) {
        tooltip.innerHTML = html;
        tooltip.style.display = 'block';
        const pos = evt.renderedPosition || evt.position;
        tooltip.style.left = (pos.x + 15) + 'px';
        tooltip.style.top = (pos.y + 15) + 'px';
      }
      cy.on('mouseover', 'node', function(evt) {
        const d = evt.target.data();
        show(evt, '<b>' + escapeHtml(d.label) + '</b><br>id ' + escapeHtml(d.id) +
          '<br>size ' + d.size + '<br>degree ' + d.degree);
      });
      cy.on('mouseover', 'edge', function(evt) {
        const d = evt.target.data();
        show(evt, escapeHtml(d.source) + ' &ndash; ' + escapeHtml(d.target) + '<br>weight ' + d.weight);
      });
      cy.on('mouseout', function() { tooltip.style.display = 'none'; });
      cy.on('tap', 'node', function(evt) {
        cy.elements().removeClass('highlighted dimmed');
        const hood = evt.target.closedNeighborhood();
        hood.nodes().addClass('highlighted');
        cy.elements().not(hood).addClass('dimmed');
      });
      cy.on('tap', function(evt) {
        if (evt.target === cy) cy.elements().removeClass('highlighted dimmed');
      });
    })();
  </script>
{{end}}
</body>
</html>`

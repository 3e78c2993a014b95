package http

import (
	"net/http"
)

// frontendHTML is the embedded map preview page. It loads MapLibre from
// a CDN, lists the available datasets and renders the selected one on
// top of a neutral background.
const frontendHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Tessera - Tile Preview</title>
    <link href="https://unpkg.com/maplibre-gl@3.6.2/dist/maplibre-gl.css" rel="stylesheet">
    <script src="https://unpkg.com/maplibre-gl@3.6.2/dist/maplibre-gl.js"></script>
    <style>
        * { box-sizing: border-box; margin: 0; padding: 0; }
        html, body { height: 100%; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; }
        #map { position: absolute; inset: 0; }
        #panel {
            position: absolute;
            top: 1rem;
            left: 1rem;
            z-index: 10;
            background: #ffffff;
            border-radius: 8px;
            box-shadow: 0 1px 3px rgba(0,0,0,0.2);
            padding: 1rem;
            min-width: 220px;
        }
        #panel h1 { font-size: 1rem; color: #2563eb; margin-bottom: 0.5rem; }
        #panel select { width: 100%; padding: 0.4rem; border: 1px solid #e2e8f0; border-radius: 6px; }
        #panel .meta { margin-top: 0.5rem; font-size: 0.75rem; color: #64748b; }
        #panel a { color: #2563eb; text-decoration: none; font-size: 0.75rem; }
    </style>
</head>
<body>
    <div id="map"></div>
    <div id="panel">
        <h1>Tessera</h1>
        <select id="dataset"><option>Loading datasets...</option></select>
        <div class="meta" id="meta"></div>
        <a href="/docs">API documentation</a>
    </div>
    <script>
        const map = new maplibregl.Map({
            container: 'map',
            style: { version: 8, sources: {}, layers: [
                { id: 'bg', type: 'background', paint: { 'background-color': '#f8fafc' } }
            ]},
            center: [0, 0],
            zoom: 1
        });
        map.addControl(new maplibregl.NavigationControl());

        const select = document.getElementById('dataset');
        const meta = document.getElementById('meta');

        function showDataset(ds) {
            if (map.getLayer('tiles-line')) map.removeLayer('tiles-line');
            if (map.getLayer('tiles-fill')) map.removeLayer('tiles-fill');
            if (map.getSource('tiles')) map.removeSource('tiles');

            map.addSource('tiles', {
                type: 'vector',
                url: '/api/v1/datasets/' + ds.id + '/tilejson.json'
            });
            map.addLayer({
                id: 'tiles-fill', type: 'fill', source: 'tiles', 'source-layer': 'default',
                filter: ['==', ['geometry-type'], 'Polygon'],
                paint: { 'fill-color': '#2563eb', 'fill-opacity': 0.25 }
            });
            map.addLayer({
                id: 'tiles-line', type: 'line', source: 'tiles', 'source-layer': 'default',
                paint: { 'line-color': '#1d4ed8', 'line-width': 1.2 }
            });

            meta.textContent = ds.feature_count + ' features';
            if (ds.bounds) {
                map.fitBounds([[ds.bounds[0], ds.bounds[1]], [ds.bounds[2], ds.bounds[3]]], { padding: 40 });
            }
        }

        fetch('/api/v1/datasets')
            .then(r => r.json())
            .then(body => {
                const datasets = body.datasets || [];
                select.innerHTML = '';
                if (datasets.length === 0) {
                    select.innerHTML = '<option>No datasets loaded</option>';
                    return;
                }
                for (const ds of datasets) {
                    const opt = document.createElement('option');
                    opt.value = ds.id;
                    opt.textContent = ds.name || ds.id;
                    select.appendChild(opt);
                }
                const byId = Object.fromEntries(datasets.map(d => [d.id, d]));
                select.onchange = () => showDataset(byId[select.value]);
                map.on('load', () => showDataset(datasets[0]));
            })
            .catch(() => { select.innerHTML = '<option>Failed to load datasets</option>'; });
    </script>
</body>
</html>`

// swaggerHTML serves Swagger UI from a CDN against the local spec.
const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Tessera API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: '/openapi.json',
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis],
            layout: 'BaseLayout'
        });
    </script>
</body>
</html>`

// handleFrontend serves the map preview page.
func (s *Server) handleFrontend(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(frontendHTML))
}

// handleSwaggerUI serves the Swagger UI page.
func (s *Server) handleSwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(swaggerHTML))
}

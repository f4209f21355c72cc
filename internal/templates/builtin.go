package templates

const (
	leafletCSS     = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"
	leafletJS      = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"
	chartJS        = "https://cdn.jsdelivr.net/npm/chart.js"
	bootstrapCSS   = "https://cdn.jsdelivr.net/npm/bootstrap@5.3.0/dist/css/bootstrap.min.css"
	bootstrapJS    = "https://cdn.jsdelivr.net/npm/bootstrap@5.3.0/dist/js/bootstrap.bundle.min.js"
	fontAwesomeCSS = "https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.0.0/css/all.min.css"
)

func leaflet() Library {
	return Library{Name: "Leaflet 1.9.4", Family: "leaflet", Globals: []string{"L"}, Scripts: []string{leafletJS}, Styles: []string{leafletCSS}}
}

func chartjs() Library {
	return Library{Name: "Chart.js", Family: "chart.js", Globals: []string{"Chart"}, Scripts: []string{chartJS}}
}

func bootstrap() Library {
	return Library{Name: "Bootstrap 5.3.0", Family: "bootstrap", Globals: []string{"bootstrap"}, Scripts: []string{bootstrapJS}, Styles: []string{bootstrapCSS}}
}

func fontAwesome() Library {
	return Library{Name: "Font Awesome 6.0.0", Family: "font-awesome", Styles: []string{fontAwesomeCSS}}
}

var (
	showLoading = Utility{Name: "showLoading", Signature: "showLoading()", Body: `function showLoading() {
    document.getElementById('loading').style.display = 'block';
}`}
	hideLoading = Utility{Name: "hideLoading", Signature: "hideLoading()", Body: `function hideLoading() {
    document.getElementById('loading').style.display = 'none';
}`}
	showError = Utility{Name: "showError", Signature: "showError(message)", Body: `function showError(message) {
    const content = document.getElementById('content');
    content.innerHTML = '<div class="alert alert-danger error"><i class="fas fa-exclamation-triangle"></i> ' + message + '</div>';
}`}
)

const header = `<div class="row">
    <div class="col-12">
        <h1 class="text-center mb-4">{{.Title}}</h1>
        <p class="text-muted text-center">{{.Description}}</p>
    </div>
</div>`

const baseCSS = `body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; }
.loading { display: none; }
.error { color: #dc3545; }`

func mapTemplate() Template {
	return Template{
		Kind:        KindMap,
		Name:        "Map",
		Description: "Leaflet map with an information panel",
		Libraries:   []Library{leaflet(), bootstrap(), fontAwesome()},
		Utilities: []Utility{
			{Name: "addMarker", Signature: "addMarker(lat, lng, popupContent)", Body: `function addMarker(lat, lng, popupContent) {
    return L.marker([lat, lng]).addTo(map).bindPopup(popupContent);
}`},
			{Name: "centerMapOn", Signature: "centerMapOn(lat, lng, zoom = 10)", Body: `function centerMapOn(lat, lng, zoom = 10) {
    map.setView([lat, lng], zoom);
}`},
			{Name: "clearMarkers", Signature: "clearMarkers()", Body: `function clearMarkers() {
    map.eachLayer(function(layer) {
        if (layer instanceof L.Marker) {
            map.removeLayer(layer);
        }
    });
}`},
			showLoading, hideLoading, showError,
		},
		RequiredIDs: []string{"map", "loading", "content"},
		Globals:     []string{"map"},
		BaseCSS: baseCSS + `
#map { height: 500px; width: 100%; }
.info-panel { max-height: 400px; overflow-y: auto; }`,
		Layout: `<div class="container-fluid">
` + header + `
<div class="row">
    <div class="col-lg-8">
        <div class="card">
            <div class="card-header"><h5><i class="fas fa-map-marked-alt"></i> Map View</h5></div>
            <div class="card-body p-0"><div id="map"></div></div>
        </div>
    </div>
    <div class="col-lg-4">
        <div class="card">
            <div class="card-header"><h5><i class="fas fa-list"></i> Information Panel</h5></div>
            <div class="card-body info-panel" id="infoPanel">
                <div class="loading" id="loading"><div class="spinner-border" role="status"></div><span>Loading data...</span></div>
                <div id="content">
{{.MainContent}}
                </div>
            </div>
        </div>
    </div>
</div>
</div>`,
		Init: `const map = L.map('map').setView([0, 0], 2);
L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
    attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);`,
	}
}

func dashboardTemplate() Template {
	metric := func(id, icon, label string) string {
		return `    <div class="col-md-3"><div class="card stat-card"><div class="card-body"><h5><i class="fas ` + icon + `"></i> ` + label + `</h5><h3 id="` + id + `">--</h3></div></div></div>
`
	}
	return Template{
		Kind:        KindDashboard,
		Name:        "Dashboard",
		Description: "Metric cards and a Chart.js line chart",
		Libraries:   []Library{chartjs(), bootstrap(), fontAwesome()},
		Utilities: []Utility{
			{Name: "updateMetric", Signature: "updateMetric(metricId, value)", Body: `function updateMetric(metricId, value) {
    document.getElementById(metricId).textContent = value;
}`},
			{Name: "updateChart", Signature: "updateChart(labels, data)", Body: `function updateChart(labels, data) {
    mainChart.data.labels = labels;
    mainChart.data.datasets[0].data = data;
    mainChart.update();
}`},
			showLoading, hideLoading,
		},
		RequiredIDs: []string{"metric1", "metric2", "metric3", "metric4", "mainChart", "loading", "summary"},
		Globals:     []string{"mainChart", "ctx"},
		BaseCSS: baseCSS + `
.chart-container { position: relative; height: 400px; }
.stat-card { border-left: 4px solid #007bff; }`,
		Layout: `<div class="container-fluid">
` + header + `
<div class="row mb-4">
` + metric("metric1", "fa-chart-line", "Metric 1") + metric("metric2", "fa-chart-bar", "Metric 2") +
			metric("metric3", "fa-chart-pie", "Metric 3") + metric("metric4", "fa-chart-area", "Metric 4") + `</div>
<div class="row">
    <div class="col-lg-8">
        <div class="card">
            <div class="card-header"><h5><i class="fas fa-chart-line"></i> Main Chart</h5></div>
            <div class="card-body"><div class="chart-container"><canvas id="mainChart"></canvas></div></div>
        </div>
    </div>
    <div class="col-lg-4">
        <div class="card">
            <div class="card-header"><h5><i class="fas fa-list"></i> Data Summary</h5></div>
            <div class="card-body">
                <div class="loading" id="loading"><div class="spinner-border" role="status"></div><span>Loading data...</span></div>
                <div id="summary">
{{.MainContent}}
                </div>
            </div>
        </div>
    </div>
</div>
</div>`,
		Init: `const ctx = document.getElementById('mainChart').getContext('2d');
const mainChart = new Chart(ctx, {
    type: 'line',
    data: { labels: [], datasets: [{ label: 'Data', data: [], borderColor: 'rgb(75, 192, 192)', tension: 0.1 }] },
    options: { responsive: true, maintainAspectRatio: false }
});`,
	}
}

func comprehensiveTemplate() Template {
	return Template{
		Kind:        KindComprehensive,
		Name:        "Comprehensive",
		Description: "Leaflet, Chart.js, Bootstrap and Font Awesome preloaded with a free-form content area",
		Libraries:   []Library{leaflet(), chartjs(), bootstrap(), fontAwesome()},
		Utilities: []Utility{
			showLoading, hideLoading, showError,
			{Name: "createMap", Signature: "createMap(elementId, lat = 0, lng = 0, zoom = 2)", Body: `function createMap(elementId, lat = 0, lng = 0, zoom = 2) {
    const m = L.map(elementId).setView([lat, lng], zoom);
    L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
        attribution: '&copy; OpenStreetMap contributors'
    }).addTo(m);
    return m;
}`},
			{Name: "addMarker", Signature: "addMarker(map, lat, lng, popupContent)", Body: `function addMarker(map, lat, lng, popupContent) {
    return L.marker([lat, lng]).addTo(map).bindPopup(popupContent);
}`},
			{Name: "createChart", Signature: "createChart(elementId, type, data, options = {})", Body: `function createChart(elementId, type, data, options = {}) {
    const canvas = document.getElementById(elementId).getContext('2d');
    return new Chart(canvas, {
        type: type,
        data: data,
        options: Object.assign({ responsive: true, maintainAspectRatio: false }, options)
    });
}`},
		},
		RequiredIDs: []string{"loading", "content"},
		BaseCSS: baseCSS + `
#map { height: 500px; width: 100%; margin-bottom: 20px; }
.chart-container { position: relative; height: 400px; margin-bottom: 20px; }
.info-panel { max-height: 400px; overflow-y: auto; }`,
		Layout: `<div class="container-fluid">
` + header + `
<div class="row">
    <div class="col-12">
        <div class="loading text-center" id="loading"><div class="spinner-border" role="status"></div><p>Loading data...</p></div>
        <div id="content">
{{.MainContent}}
        </div>
    </div>
</div>
</div>`,
	}
}

package kiosk

import "html/template"

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <link rel="stylesheet" href="/assets/kiosk.css">
</head>
<body>
    <div class="app">
        <div class="header">
            <div class="title">{{.Title}}</div>
            <span class="badge" id="camera-badge">Camera: waiting...</span>
        </div>

        <div class="grid">
            <div class="panel">
                <div id="video-panel" class="video-panel" style="width:{{.Width}}px;height:{{.Height}}px;">
                    <img id="video" src="/stream" alt="Live camera"
                         style="position:absolute;top:0;left:0;width:{{.Width}}px;height:{{.Height}}px;">
                    <img id="overlay" src="/overlay.png" alt=""
                         style="position:absolute;top:0;left:0;width:{{.Width}}px;height:{{.Height}}px;pointer-events:none;">
                </div>
                <div class="controls">
                    <button type="button" id="btn-start">Start Checking</button>
                    <button type="button" id="btn-stop" style="display:none;">Stop Checking</button>
                    <button type="button" id="btn-reset">Reset Attendance</button>
                </div>
            </div>

            <div class="panel">
                <h2>Attendance</h2>
                <table class="attendance">
                    <thead>
                        <tr><th>Name</th><th>Time</th></tr>
                    </thead>
                    <tbody id="attendance-body"></tbody>
                </table>
            </div>
        </div>
    </div>
    <script src="/assets/kiosk.js"></script>
</body>
</html>
`))

type indexData struct {
	Title  string
	Width  int
	Height int
}

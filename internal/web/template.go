package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/breath-sensor/internal/sleep"
	"github.com/sweeney/breath-sensor/internal/tracker"
)

func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	days := int(d.Hours()) / 24
	h := int(d.Hours()) % 24
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
	}
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

var pageFuncs = template.FuncMap{
	"elapsed": formatDuration,
	"sleepSecs": func(secs float64) string {
		return formatDuration(time.Duration(secs * float64(time.Second)))
	},
}

const pageCSS = `
body { font-family: monospace; max-width: 700px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
nav a { margin-right: 1em; }
.state { font-weight: bold; }
.state.ACTIVE { color: green; }
.state.PAUSED { color: orange; }
.state.ENDED, .state.IDLE { color: #888; }
button { font-family: monospace; padding: 6px 12px; margin-right: 6px; }
canvas { width: 100%; height: 200px; border: 1px solid #ddd; background: #fafafa; }
.gallery img { max-width: 320px; border: 1px solid #ddd; margin: 4px; }
`

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(pageFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Breath Sensor</title>
<style>` + pageCSS + `</style>
</head>
<body>
<h1>Breath Sensor</h1>
<nav><a href="/metrics">history</a><a href="/alerts">snapshots</a><a href="/learn">learn</a><a href="/index.json">status</a></nav>

<table>
<tr><th>Session</th><td><span id="session-state" class="state {{.State}}">{{.State}}</span></td></tr>
<tr><th>Sleep time</th><td id="elapsed">{{elapsed .Elapsed}}</td></tr>
</table>

<p>
<button onclick="control('/start_sleep')">Start</button>
<button onclick="control('/pause_sleep')">Pause</button>
<button onclick="control('/resume_sleep')">Resume</button>
<button onclick="control('/end_sleep')">End</button>
<button onclick="capture()">Capture</button>
<span id="capture-note"></span>
</p>

<canvas id="wave" width="700" height="200"></canvas>

<table>
<tr><th>Breath rate</th><td id="rate">—</td></tr>
<tr><th>Peaks in 20s</th><td id="peaks">—</td></tr>
<tr><th>Apneas</th><td id="apneas">—</td></tr>
<tr><th>Hypopneas</th><td id="hypopneas">—</td></tr>
<tr><th>AHI</th><td id="ahi">—</td></tr>
</table>

<script>
(function() {
  var canvas = document.getElementById("wave");
  var ctx = canvas.getContext("2d");
  var buf = [];
  var MAX = 600;
  var lower = -0.5, upper = 0.5;

  function setText(id, text) {
    document.getElementById(id).textContent = text;
  }

  function fmtElapsed(secs) {
    secs = Math.floor(secs);
    var h = Math.floor(secs / 3600);
    var m = Math.floor((secs % 3600) / 60);
    var s = secs % 60;
    if (h > 0) return h + "h " + m + "m " + s + "s";
    if (m > 0) return m + "m " + s + "s";
    return s + "s";
  }

  function draw() {
    var w = canvas.width, h = canvas.height;
    ctx.clearRect(0, 0, w, h);
    ctx.strokeStyle = "#ddd";
    ctx.beginPath();
    ctx.moveTo(0, h / 2);
    ctx.lineTo(w, h / 2);
    ctx.stroke();

    if (buf.length < 2) return;
    var span = upper - lower || 1;
    var step = w / (MAX - 1);
    ctx.strokeStyle = "#2266cc";
    ctx.beginPath();
    for (var i = 0; i < buf.length; i++) {
      var y = h - ((buf[i].v - lower) / span) * h;
      if (i === 0) ctx.moveTo(i * step, y); else ctx.lineTo(i * step, y);
    }
    ctx.stroke();

    ctx.fillStyle = "#cc2222";
    for (var j = 0; j < buf.length; j++) {
      if (buf[j].peak) {
        var py = h - ((buf[j].v - lower) / span) * h;
        ctx.beginPath();
        ctx.arc(j * step, py, 3, 0, 2 * Math.PI);
        ctx.fill();
      }
    }
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/live");
    ws.onmessage = function(ev) {
      var s = JSON.parse(ev.data);
      lower = s.lower;
      upper = s.upper;
      buf.push({v: s.value, peak: s.peak});
      if (buf.length > MAX) buf.shift();
      draw();
      setText("rate", s.breath_rate.toFixed(1));
      setText("peaks", s.peaks_in_20);
      setText("apneas", s.apneas);
      setText("hypopneas", s.hypopneas);
      setText("ahi", s.AHI.toFixed(2));
      setText("elapsed", fmtElapsed(s.total_sleep_secs));
    };
    ws.onclose = function() { setTimeout(connect, 2000); };
  }

  var states = {
    "sleep started": "ACTIVE",
    "sleep paused": "PAUSED",
    "sleep resumed": "ACTIVE",
    "sleep ended": "ENDED"
  };

  window.control = function(path) {
    fetch(path).then(function(r) { return r.json(); }).then(function(resp) {
      var el = document.getElementById("session-state");
      var state = states[resp.status];
      if (state) {
        el.textContent = state;
        el.className = "state " + state;
      }
      if (resp.total_sleep_seconds !== undefined) {
        setText("elapsed", fmtElapsed(resp.total_sleep_seconds));
      }
    });
  };

  window.capture = function() {
    fetch("/upload_snapshot", {
      method: "POST",
      headers: {"Content-Type": "application/json"},
      body: JSON.stringify({image: canvas.toDataURL("image/png")})
    }).then(function(r) { return r.json(); }).then(function(resp) {
      setText("capture-note", resp.status === "ok" ? "saved " + resp.file : resp.status);
    });
  };

  connect();
})();
</script>
</body>
</html>
`))

var metricsTmpl = template.Must(template.New("metrics").Funcs(pageFuncs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Breath Sensor — History</title>
<style>` + pageCSS + `</style>
</head>
<body>
<h1>Sleep History</h1>
<nav><a href="/">live</a><a href="/metrics.json">json</a><a href="/metrics/export.xlsx">spreadsheet</a></nav>

{{if .}}
<table>
<tr><th>Date</th><th>Avg Rate</th><th>Min</th><th>Max</th><th>Avg Peaks</th><th>Apneas</th><th>Hypopneas</th><th>AHI</th><th>Sleep</th></tr>
{{range .}}<tr>
<td>{{.Date}}</td>
<td>{{printf "%.2f" .AvgBreathRate}}</td>
<td>{{printf "%.2f" .MinBreathRate}}</td>
<td>{{printf "%.2f" .MaxBreathRate}}</td>
<td>{{printf "%.2f" .AvgPeaksIn20}}</td>
<td>{{.ApneaEvents}}</td>
<td>{{.HypopneaEvents}}</td>
<td>{{printf "%.2f" .AHI}}</td>
<td>{{sleepSecs .TotalSleepSecs}}</td>
</tr>{{end}}
</table>
{{else}}
<p>No summaries recorded yet.</p>
{{end}}
</body>
</html>
`))

var alertsTmpl = template.Must(template.New("alerts").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Breath Sensor — Snapshots</title>
<style>` + pageCSS + `</style>
</head>
<body>
<h1>Snapshots</h1>
<nav><a href="/">live</a><a href="/metrics">history</a></nav>

{{if .}}
<div class="gallery">
{{range .}}<a href="/screens/{{.}}"><img src="/screens/{{.}}" alt="{{.}}"></a>
{{end}}</div>
{{else}}
<p>No snapshots captured yet.</p>
{{end}}
</body>
</html>
`))

var learnTmpl = template.Must(template.New("learn").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Breath Sensor — Learn</title>
<style>` + pageCSS + `</style>
</head>
<body>
<h1>Reading the Numbers</h1>
<nav><a href="/">live</a><a href="/metrics">history</a></nav>

<p>The sensor samples chest movement and reports one demeaned value per cycle.
The dashboard plots those values between the device's display bounds; red dots
mark detected breath peaks.</p>

<table>
<tr><th>Breath rate</th><td>Breaths per minute, estimated from the peak
spacing. Adults typically sleep at 12 to 20.</td></tr>
<tr><th>Peaks in 20s</th><td>Breath peaks counted in the trailing 20-second
window.</td></tr>
<tr><th>Apneas</th><td>Pauses in breathing of at least 10 seconds.</td></tr>
<tr><th>Hypopneas</th><td>Periods of abnormally shallow breathing.</td></tr>
<tr><th>AHI</th><td>Apnea–Hypopnea Index: events per hour of sleep. Under 5 is
considered normal.</td></tr>
</table>

<p>A daily summary is written while a session runs and finalized when you end
it. See the <a href="/metrics">history</a> page.</p>
</body>
</html>
`))

func renderDashboard(w io.Writer, snap tracker.Snapshot) {
	data := struct {
		State   string
		Elapsed time.Duration
	}{
		State:   string(snap.SessionState),
		Elapsed: snap.Elapsed,
	}
	dashboardTmpl.Execute(w, data)
}

func renderMetrics(w io.Writer, summaries []sleep.Summary) {
	metricsTmpl.Execute(w, summaries)
}

func renderAlerts(w io.Writer, files []string) {
	alertsTmpl.Execute(w, files)
}

func renderLearn(w io.Writer) {
	learnTmpl.Execute(w, nil)
}

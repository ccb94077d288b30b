package health

import (
	"bytes"
	"encoding/json"
	"html/template"
	"sort"
)

type dashboardDep struct {
	Name   string
	Status string
	PingMs *int64
	OK     bool
}

type dashboardData struct {
	Service  string
	Health   CollectResult
	Headline string
	Healthy  bool
	Load     string
	Deps     []dashboardDep
	Payload  template.JS
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>Stock Tracker · API Status</title>
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <style>
    :root { --ok: #0f766e; --bad: #dc2626; --ink: #0f172a; --muted: #64748b; --bg: #f8fafc; }
    body { background: var(--bg); color: var(--ink); font-family: system-ui, sans-serif; margin: 0; padding: 40px 20px; }
    main { max-width: 960px; margin: 0 auto; }
    h1 { font-size: 40px; margin: 0 0 6px; letter-spacing: -1px; }
    h1.ok { color: var(--ok); } h1.issue { color: var(--bad); }
    .sub { color: var(--muted); margin-bottom: 28px; }
    .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(260px, 1fr)); gap: 16px; }
    .card { background: #fff; border-radius: 16px; padding: 24px; box-shadow: 0 10px 30px -15px rgba(15, 23, 42, .25); }
    .label { text-transform: uppercase; font-size: 11px; letter-spacing: 2px; color: var(--muted); margin-bottom: 14px; }
    .big { font-size: 34px; font-weight: 800; margin-bottom: 8px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; border-bottom: 1px solid #f1f5f9; font-size: 14px; }
    .pill { font-size: 12px; font-weight: 700; padding: 2px 10px; border-radius: 8px; }
    .pill.ok { background: #ccfbf1; color: var(--ok); } .pill.err { background: #fee2e2; color: var(--bad); }
    footer { margin-top: 24px; font-family: monospace; font-size: 13px; color: var(--muted); }
    a { color: var(--ok); }
  </style>
</head>
<body>
<main>
  <h1 id="headline" class="{{if .Healthy}}ok{{else}}issue{{end}}">{{.Headline}}</h1>
  <div class="sub">{{.Service}} · <a href="/health/json">/health/json</a> · <a href="/health/errors">/health/errors</a></div>
  <div class="grid">
    <div class="card">
      <div class="label">Traffic</div>
      <div class="big" id="total-req">{{.Health.Traffic.TotalRequests}}</div>
      <div class="row"><span>Successful</span><span id="success-count">{{.Health.Traffic.SuccessCount}}</span></div>
      <div class="row"><span>Failed</span><span id="failed-count">{{.Health.Traffic.FailedCount}}</span></div>
      <div class="row"><span>Success rate</span><span id="success-rate">{{.Health.Traffic.SuccessRate}}%</span></div>
      <div class="row"><span>Avg latency</span><span id="avg-time">{{.Health.Traffic.AvgResponseTime}}ms</span></div>
    </div>
    <div class="card">
      <div class="label">Runtime</div>
      <div class="big" id="uptime">{{.Health.Runtime.UptimeSeconds}}s</div>
      <div class="row"><span>Heap in use</span><span id="mem-heap">{{.Health.Runtime.Memory.HeapUsed}} MB</span></div>
      <div class="row"><span>Load avg</span><span id="load">{{.Load}}</span></div>
      <div class="row"><span>System memory</span><span id="mem-sys">{{.Health.Runtime.Memory.SystemUsedPercent}}%</span></div>
      <div class="row"><span>Goroutines</span><span id="goroutines">{{.Health.Runtime.Goroutines}}</span></div>
      <div class="row"><span>Platform</span><span>{{.Health.Runtime.Platform}}</span></div>
      <div class="row"><span>Go</span><span>{{.Health.Runtime.GoVersion}}</span></div>
    </div>
    <div class="card">
      <div class="label">Dependencies</div>
      {{range .Deps}}<div class="row"><span>{{.Name}}</span><span class="pill {{if .OK}}ok{{else}}err{{end}}">{{.Status}}{{with .PingMs}} · {{.}} ms{{end}}</span></div>
      {{end}}
    </div>
  </div>
  <footer id="last-request"></footer>
</main>
<script>
  const render = (d) => {
    const hl = document.getElementById('headline');
    hl.innerText = d.status === 'ok' ? 'All Systems Operational' : 'System Issues Detected';
    hl.className = d.status === 'ok' ? 'ok' : 'issue';
    document.getElementById('total-req').innerText = d.traffic.totalRequests;
    document.getElementById('success-count').innerText = d.traffic.successCount;
    document.getElementById('failed-count').innerText = d.traffic.failedCount;
    document.getElementById('success-rate').innerText = d.traffic.successRate + '%';
    document.getElementById('avg-time').innerText = d.traffic.avgResponseTime + 'ms';
    document.getElementById('uptime').innerText = d.runtime.uptimeSeconds + 's';
    document.getElementById('mem-heap').innerText = d.runtime.memory.heapUsed + ' MB';
    document.getElementById('goroutines').innerText = d.runtime.goroutines;
    document.getElementById('load').innerText = d.runtime.loadAvg[0];
    document.getElementById('mem-sys').innerText = d.runtime.memory.systemUsedPercent + '%';
    const r = d.traffic.lastRequest;
    document.getElementById('last-request').innerText = r ? 'last request: ' + r.method + ' ' + r.path + ' from ' + r.ip : '';
  };
  render({{.Payload}});
  let left = 3;
  const timer = setInterval(async () => {
    if (--left < 0) { clearInterval(timer); return; }
    try { render(await (await fetch('/health/json')).json()); } catch (e) {}
  }, 10000);
</script>
</body>
</html>`))

// RenderDashboardHTML returns the status page served at GET /.
func RenderDashboardHTML(health CollectResult) (string, error) {
	payload, err := json.Marshal(health)
	if err != nil {
		return "", err
	}
	data := dashboardData{
		Service:  ServiceName,
		Health:   health,
		Healthy:  health.Status == "ok",
		Headline: "System Issues Detected",
		Load:     "0.00",
		Payload:  template.JS(payload),
	}
	if len(health.Runtime.LoadAvg) > 0 {
		data.Load = health.Runtime.LoadAvg[0]
	}
	if data.Healthy {
		data.Headline = "All Systems Operational"
	}
	for name, dep := range health.Dependencies {
		data.Deps = append(data.Deps, dashboardDep{
			Name:   name,
			Status: dep.Status,
			PingMs: dep.PingMs,
			OK:     dep.Status == "connected" || dep.Status == "disabled",
		})
	}
	sort.Slice(data.Deps, func(i, j int) bool { return data.Deps[i].Name < data.Deps[j].Name })

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

package api

import (
	"html/template"

	"github.com/politeping/politeping/internal/monitor"
)

type dashboardData struct {
	GeneratedAt string
	Verdicts    []monitor.HealthVerdict
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>politeping</title>
<style>
body { font-family: sans-serif; margin: 2rem; background: #fafafa; }
table { border-collapse: collapse; width: 100%; background: #fff; }
th, td { border: 1px solid #ddd; padding: 0.4rem 0.7rem; text-align: left; font-size: 0.9rem; }
th { background: #f0f0f0; }
.tier-Healthy { color: #1a7f37; }
.tier-Degraded { color: #9a6700; }
.tier-Unhealthy { color: #cf222e; }
.tier-Error { color: #cf222e; font-style: italic; }
.tier-Disallowed, .tier-Skipped { color: #656d76; }
.meta { color: #656d76; font-size: 0.8rem; margin-bottom: 1rem; }
</style>
</head>
<body>
<h1>politeping</h1>
<p class="meta">generated {{.GeneratedAt}} &middot; {{len .Verdicts}} endpoints</p>
<table>
<tr><th>name</th><th>tier</th><th>status</th><th>latency (ms)</th><th>title</th><th>keyword</th><th>checked</th></tr>
{{range .Verdicts}}
<tr>
<td><a href="{{.Endpoint.URL}}">{{.Endpoint.Name}}</a></td>
<td class="tier-{{.Tier}}">{{.Tier}}</td>
<td>{{if .HTTPStatus}}{{.HTTPStatus}}{{end}}</td>
<td>{{.LatencyMs}}</td>
<td>{{.Title}}</td>
<td>{{.MatchedKeyword}}</td>
<td>{{.Timestamp.Format "2006-01-02T15:04:05Z07:00"}}</td>
</tr>
{{end}}
</table>
</body>
</html>
`))

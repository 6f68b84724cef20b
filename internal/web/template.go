package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/battery-controller/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
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
	},
	"onOff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
	"ts": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.UTC().Format("2006-01-02T15:04:05Z")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Battery {{.Config.BatteryID}}</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ON { color: green; font-weight: bold; }
.OFF { color: #888; }
.ok { color: green; }
.failed { color: red; }
</style>
</head>
<body>
<h1>Battery {{.Config.BatteryID}}{{if .Device.Sleeping}} (asleep){{end}}{{if .Device.Finished}} (shut down){{end}}</h1>

<h2>Outputs</h2>
<table>
<tr><th>USB</th><td class="{{onOff .Device.Outputs.USB}}">{{onOff .Device.Outputs.USB}}</td></tr>
<tr><th>Inverter</th><td class="{{onOff .Device.Outputs.Inverter}}">{{onOff .Device.Outputs.Inverter}}</td></tr>
<tr><th>Charge</th><td class="{{onOff .Device.Outputs.Charge}}">{{onOff .Device.Outputs.Charge}}</td></tr>
<tr><th>Fan</th><td class="{{onOff .Device.Outputs.Fan}}">{{onOff .Device.Outputs.Fan}}</td></tr>
<tr><th>Charger</th><td>{{if .Device.Charging}}charging{{else if .Device.ChargerConnected}}connected{{else}}not connected{{end}}</td></tr>
</table>

{{if .Device.Logs}}<h2>Last Reading</h2>
<table>
<tr><th>Logged</th><td>{{ts .Device.LastLogged}}</td></tr>
<tr><th>Charge remaining</th><td>{{printf "%.1f" .Device.LastReading.Battery.StateOfCharge}}%</td></tr>
<tr><th>Battery</th><td>{{printf "%.2f" .Device.LastReading.Battery.Voltage}}V {{printf "%.2f" .Device.LastReading.Battery.Current}}A</td></tr>
<tr><th>Temperature</th><td>{{printf "%.1f" .Device.LastReading.Temperature}}C</td></tr>
<tr><th>Position</th><td>{{.Device.LastReading.GPS.Latitude}}, {{.Device.LastReading.GPS.Longitude}}</td></tr>
<tr><th>Errors</th><td>{{with .Device.LastReading.Errors.String}}{{.}}{{else}}none{{end}}</td></tr>
</table>
{{end}}
<h2>Logging</h2>
<table>
<tr><th>Logs</th><td>{{.Device.Logs}}</td></tr>
<tr><th>SD card</th><td class="{{if .Device.SDFailed}}failed{{else}}ok{{end}}">{{if .Device.SDFailed}}failing ({{.Device.SDConsecutive}}){{else}}ok{{end}}, last {{ts .Device.SDLastSuccess}}</td></tr>
<tr><th>Network</th><td class="{{if .Device.NetFailed}}failed{{else}}ok{{end}}">{{if .Device.NetFailed}}failing ({{.Device.NetConsecutive}}){{else}}ok{{end}}, last {{ts .Device.NetLastSuccess}}</td></tr>
<tr><th>Modem</th><td>{{.Device.ModemState}} ({{.Device.ModemResets}} resets)</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}ok{{else}}failed{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{ts .StartTime}}</td></tr>
<tr><th>Boot ID</th><td>{{.Config.BootID}}</td></tr>
<tr><th>Sleeps</th><td>{{.Counts.Sleep}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>API</th><td>{{.Config.APIBaseURL}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/reading.json">reading</a> | <a href="/reading.csv">csv</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}

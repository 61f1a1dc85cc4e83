// Package fixture holds a small listing page used across package tests.
package fixture

import (
	"time"

	"cartelera/internal/dateutil"
	"cartelera/internal/filter"
)

// Listing is judged at Now (2024-06-10 10:00):
//   - e1 ended on 2024-06-01 and goes away;
//   - e2 loses its first session and keeps 2024-06-15;
//   - e3 plays 2024-06-12 20:00;
//   - e4 has no sessions;
//   - e5 runs 2024-07-01..2024-07-05;
//   - e6 ended at 09:00 today and goes away.
const Listing = `<!DOCTYPE html>
<html>
<head>
<title> Eventos </title>
<style id="jscss"></style>
</head>
<body>
<form>
<select id="categoria">
<option value="">Todos</option>
<optgroup label="Tipo">
<option value="cine" data-txt="Cine">Cine</option>
<option value="teatro" data-txt="Teatro">Teatro</option>
<option value="musica" data-txt="Música">Música</option>
</optgroup>
</select>
<input type="date" id="ini" min="2024-06-01" max="2024-12-31" value="2024-06-01"/>
<input type="date" id="fin" min="2024-06-01" max="2024-12-31" value="2024-12-31"/>
</form>
<p>Total: <span id="total">6</span></p>
<div id="eventos">
<div class="evento cine" id="e1" data-end="2024-06-01">
<h2>Old film</h2>
<ol class="sesiones"><li data-start="2024-06-01 20:00" data-end="2024-06-01 22:00">1 jun</li></ol>
</div>
<div class="evento teatro" id="e2" data-end="2024-06-15">
<h2><a href="https://example.org/e/2">Hamlet</a></h2>
<ol class="sesiones">
<li data-start="2024-06-01" data-end="2024-06-01">1 jun</li>
<li data-start="2024-06-15" data-end="2024-06-15">15 jun</li>
</ol>
</div>
<div class="evento musica" id="e3" data-end="2024-06-12">
<h2>Concierto</h2>
<ol class="sesiones"><li data-start="2024-06-12 20:00">12 jun 20:00</li></ol>
</div>
<div class="evento cine" id="e4" style="display:none; color:red">
<h2>Ciclo sin fechas</h2>
</div>
<div class="evento musica" id="e5" data-end="2024-07-05">
<h2>Festival</h2>
<ol class="sesiones"><li data-start="2024-07-01" data-end="2024-07-05">1-5 jul</li></ol>
</div>
<div class="evento cine" id="e6" data-end="2024-06-10 09:00">
<h2>Matinal</h2>
<ol class="sesiones"><li data-start="2024-06-10 08:00" data-end="2024-06-10 09:00">10 jun 8:00</li></ol>
</div>
</div>
</body>
</html>
`

// Now is the moment Listing is meant to be judged at.
var Now = time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC)

// Clock is a fixed clock at Now.
func Clock() dateutil.Clock {
	return dateutil.FixedClock(Now)
}

// Controls are Listing's control ids.
func Controls() filter.Controls {
	return filter.Controls{
		Select: "categoria",
		Ini:    "ini",
		Fin:    "fin",
		Total:  "total",
		CSS:    "jscss",
	}
}

package server

// indexHTML is the single-page chat client
const indexHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>carbontally</title>
<style>
body { font-family: sans-serif; max-width: 40rem; margin: 2rem auto; }
#log div { margin: .4rem 0; }
.saved { color: #1a7f37; }
.emitted { color: #cf222e; }
#total { font-weight: bold; }
</style>
</head>
<body>
<h1>carbontally</h1>
<p>Tell me what you did today, e.g. <em>drove 5 km and cycled 3 km</em>.</p>
<p>Running total: <span id="total">0</span> kg CO2</p>
<div id="log"></div>
<form id="chat">
<input id="prompt" autocomplete="off" size="50" autofocus>
<button>Log</button>
</form>
<script>
const log = document.getElementById("log");
const total = document.getElementById("total");
function show(text, cls) {
  const d = document.createElement("div");
  d.textContent = text;
  if (cls) d.className = cls;
  log.appendChild(d);
}
fetch("/stats").then(r => r.json()).then(s => { total.textContent = s.total_co2.toFixed(2); });
document.getElementById("chat").addEventListener("submit", async e => {
  e.preventDefault();
  const input = document.getElementById("prompt");
  const prompt = input.value;
  input.value = "";
  show("> " + prompt);
  const r = await fetch("/chat", {
    method: "POST",
    headers: {"Content-Type": "application/json"},
    body: JSON.stringify({prompt}),
  });
  const body = await r.json();
  if (!body.ok) { show(body.error, "emitted"); return; }
  show(body.reply, body.co2 >= 0 ? "saved" : "emitted");
  total.textContent = body.total_co2.toFixed(2);
});
</script>
</body>
</html>
`

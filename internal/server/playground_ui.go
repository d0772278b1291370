package server

// playgroundPage is the single page served at /. It sends the editor
// contents over /ws on every change and shows the IR, the preview and the
// diagnostics of the reply. Build updates from the watcher replace the
// diagnostics pane.
const playgroundPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Orbit Playground</title>
<style>
body { margin: 0; font-family: system-ui, sans-serif; background: #f8fafc; color: #1e293b; }
header { padding: 12px 16px; background: #1e293b; color: #f1f5f9; display: flex; justify-content: space-between; }
main { display: grid; grid-template-columns: 1fr 1fr; gap: 12px; padding: 12px; height: calc(100vh - 72px); }
textarea, pre, iframe { width: 100%; height: 100%; box-sizing: border-box; border: 1px solid #e2e8f0; border-radius: 6px; }
textarea, pre { font-family: ui-monospace, monospace; font-size: 13px; padding: 8px; margin: 0; overflow: auto; }
.right { display: grid; grid-template-rows: 1fr 1fr auto; gap: 12px; }
#diagnostics { max-height: 160px; background: #fff5f5; color: #c53030; }
#status.connected { color: #68d391; }
</style>
</head>
<body>
<header><strong>Orbit Playground</strong><span id="status">connecting</span></header>
<main>
<textarea id="source" spellcheck="false"><ul class="list">
  {#for item in items}
    <li :if={item.visible}>{{ item.name }}</li>
  {/for}
</ul></textarea>
<div class="right">
<pre id="ir"></pre>
<iframe id="preview" sandbox=""></iframe>
<pre id="diagnostics"></pre>
</div>
</main>
<script>
(function () {
  var source = document.getElementById('source');
  var status = document.getElementById('status');
  var counter = 0;
  var ws;

  function connect() {
    var scheme = location.protocol === 'https:' ? 'wss://' : 'ws://';
    ws = new WebSocket(scheme + location.host + '/ws');
    ws.onopen = function () { status.textContent = 'connected'; status.className = 'connected'; send(); };
    ws.onclose = function () { status.textContent = 'disconnected'; status.className = ''; setTimeout(connect, 1000); };
    ws.onmessage = function (event) {
      var msg = JSON.parse(event.data);
      if (msg.type !== 'result') {
        document.getElementById('diagnostics').textContent =
          msg.type + ' ' + (msg.target || '') + '\n' + format(msg.diagnostics);
        return;
      }
      if (msg.id !== String(counter)) { return; }
      document.getElementById('ir').textContent = msg.sexp || '';
      document.getElementById('preview').srcdoc = msg.html || '';
      document.getElementById('diagnostics').textContent = format(msg.diagnostics) + (msg.error || '');
    };
  }

  function format(diagnostics) {
    return (diagnostics || []).map(function (d) {
      return (d.file ? d.file + ':' : '') + d.line + ':' + (d.column || 0) + ' ' + d.message;
    }).join('\n');
  }

  function send() {
    if (!ws || ws.readyState !== WebSocket.OPEN) { return; }
    counter++;
    ws.send(JSON.stringify({ id: String(counter), source: source.value }));
  }

  var timer;
  source.addEventListener('input', function () { clearTimeout(timer); timer = setTimeout(send, 150); });
  connect();
})();
</script>
</body>
</html>
`

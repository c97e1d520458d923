// internal/testapp/page.go
package testapp

import (
	"html/template"
	"io"
)

type pageData struct {
	Options
	Types       []struct{ Value, Label string }
	Dimensions  map[string][3]int
	DelayMillis int64
}

func renderIndex(w io.Writer, opts Options) error {
	return indexTemplate.Execute(w, pageData{
		Options:     opts,
		Types:       FurnitureTypes,
		Dimensions:  DefaultDimensions,
		DelayMillis: opts.GenerateDelay.Milliseconds(),
	})
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { margin: 0; font-family: sans-serif; }
  .layout { display: flex; width: 100%; }
  .left-pane { width: 25%; box-sizing: border-box; padding: 8px; }
  .middle-pane { width: 45%; box-sizing: border-box; padding: 8px; }
  .right-pane { width: 30%; box-sizing: border-box; padding: 8px; }
  #viewer { width: 100%; height: 400px; background: #ddd; }
  .cut-diagram { font-family: monospace; white-space: pre; }
</style>
</head>
<body>
{{if not .OmitTitle}}<h1>{{.Title}}</h1>{{end}}
<div class="layout">
  <div class="left-pane">
    <select id="furniture-type">
      {{range .Types}}<option value="{{.Value}}">{{.Label}}</option>
      {{end}}
    </select>
    <input id="length" type="number">
    <input id="width" type="number">
    <input id="height" type="number">
    <button id="generate-btn">Generate Design</button>
  </div>
  <div class="middle-pane">
    <div id="viewer"></div>
    <div id="view-toggle" style="display: none">
      <button id="exploded-toggle">Toggle</button>
      <span id="toggle-label">Assembled</span>
    </div>
  </div>
  <div class="right-pane">
    <div id="results" style="display: none">
      {{if not .OmitCutDiagram}}<div class="cut-diagram"></div>{{end}}
      {{if not .OmitDownloads}}
      <a id="stl-download" href="#">STL</a>
      <a id="cut-list-download" href="#">Cut List</a>
      <a id="shopping-list-download" href="#">Shopping List</a>
      {{end}}
    </div>
  </div>
</div>
<script>
(function() {
  const dims = {{.Dimensions}};
  const delay = {{.DelayMillis}};
  const neverFinish = {{.NeverFinish}};
  const hideViewer = {{.HideViewer}};
  const stickyToggle = {{.StickyToggle}};

  const typeSel = document.getElementById('furniture-type');
  const btn = document.getElementById('generate-btn');
  const label = document.getElementById('toggle-label');
  let toggles = 0;

  function applyDefaults() {
    const d = dims[typeSel.value];
    if (!d) { return; }
    document.getElementById('length').value = d[0];
    document.getElementById('width').value = d[1];
    document.getElementById('height').value = d[2];
  }
  typeSel.addEventListener('change', applyDefaults);
  applyDefaults();

  function setLink(id, file) {
    const a = document.getElementById(id);
    if (a) { a.href = '/api/download/' + file; }
  }

  btn.addEventListener('click', function() {
    btn.textContent = 'Generating...';
    btn.disabled = true;
    const body = {
      type: typeSel.value,
      length: parseFloat(document.getElementById('length').value),
      width: parseFloat(document.getElementById('width').value),
      height: parseFloat(document.getElementById('height').value)
    };
    fetch('/api/generate', {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify(body)
    }).then(function(r) { return r.json(); }).then(function(data) {
      if (neverFinish) { return; }
      setTimeout(function() {
        if (data.success) {
          document.getElementById('results').style.display = 'block';
          if (!hideViewer) { document.getElementById('view-toggle').style.display = 'block'; }
          const diagram = document.querySelector('.cut-diagram');
          if (diagram) { diagram.textContent = data.cut_list_content; }
          setLink('stl-download', data.files.stl_assembled);
          setLink('cut-list-download', data.files.cut_list);
          setLink('shopping-list-download', data.files.shopping_list);
        }
        btn.textContent = 'Generate Design';
        btn.disabled = false;
      }, delay);
    });
  });

  document.getElementById('exploded-toggle').addEventListener('click', function() {
    if (stickyToggle && toggles > 0) { return; }
    toggles++;
    label.textContent = label.textContent === 'Assembled' ? 'Exploded' : 'Assembled';
  });
})();
</script>
</body>
</html>
`))

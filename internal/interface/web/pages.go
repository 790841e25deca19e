package web

const pageStyle = `
  <style>
    body { margin: 0; font-family: "Segoe UI", "Helvetica Neue", Arial, sans-serif; background: #f4f6f9; color: #1b1b1b; }
    header { padding: 18px 28px; background: #0c2d48; color: #fff; display: flex; gap: 24px; align-items: center; }
    header a { color: #cfe3ff; text-decoration: none; }
    main { padding: 24px 28px; display: grid; gap: 18px; }
    .panel { background: #fff; border: 1px solid #dde3ea; border-radius: 10px; padding: 14px 16px; }
    .panel h3 { margin: 0 0 10px 0; font-size: 14px; color: #5a6573; }
    table { width: 100%; border-collapse: collapse; font-size: 13px; }
    thead th { text-align: left; padding: 8px 6px; border-bottom: 1px solid #dde3ea; color: #5a6573; }
    tbody td { padding: 8px 6px; border-bottom: 1px dashed #e6ebf0; }
    tr.active-flight { background: #eaf2ff; }
    .delay-ontime { color: #1f8a3b; }
    .delay-minor { color: #b38f00; }
    .delay-moderate { color: #d9731a; }
    .delay-severe { color: #c62828; font-weight: 600; }
    .status-cancelled { color: #c62828; }
    .status-diverted { color: #6a1b9a; }
    .status-delayed { color: #d9731a; }
    .status-unknown { color: #8a99a8; }
    .controls { display: flex; gap: 10px; align-items: center; }
    .controls input { padding: 6px 8px; border: 1px solid #dde3ea; border-radius: 6px; }
    .controls button { padding: 7px 12px; border: none; border-radius: 6px; background: #0c2d48; color: #fff; cursor: pointer; }
    .controls button:disabled { background: #8a99a8; cursor: wait; }
    #flightMap { height: 360px; }
    #flightStatusChart img { max-width: 480px; width: 100%; }
    #loadingOverlay { position: fixed; inset: 0; background: rgba(12, 45, 72, 0.75); display: none; align-items: center; justify-content: center; z-index: 1000; }
    .progress-box { width: 360px; color: #fff; text-align: center; }
    .progress-track { height: 10px; background: rgba(255, 255, 255, 0.25); border-radius: 5px; overflow: hidden; }
    #progressFill { height: 100%; width: 0; background: #7fd4ff; }
    #progressText { margin-top: 10px; font-size: 14px; }
  </style>`

const pageScript = `
  <script>
    const versions = {};
    let map = null;
    let marker = null;
    let markerID = 0;

    async function fetchJSON(path, opts) {
      const res = await fetch(path, opts);
      return res.json();
    }

    async function syncFragment(id) {
      const el = document.getElementById(id);
      if (!el) return;
      const res = await fetch('/api/fragments/' + id + '?format=html');
      if (res.ok) el.innerHTML = await res.text();
    }

    async function syncMap() {
      if (!document.getElementById('flightMap') || typeof L === 'undefined') return;
      const state = await fetchJSON('/api/map');
      if (!state.initialized) return;
      if (!map) {
        map = L.map('flightMap').setView([state.center.lat, state.center.lon], state.zoom);
        L.tileLayer(state.tileUrl, { attribution: state.attribution }).addTo(map);
      }
      const next = state.marker ? state.marker.id : 0;
      if (next === markerID) return;
      if (marker) { map.removeLayer(marker); marker = null; }
      markerID = next;
      if (state.marker) {
        marker = L.marker([state.marker.position.lat, state.marker.position.lon]).addTo(map)
          .bindPopup(state.marker.popup).openPopup();
      }
      map.setView([state.center.lat, state.center.lon], state.zoom);
    }

    async function poll() {
      try {
        const state = await fetchJSON('/api/state');
        const doc = state.document;
        const fill = document.getElementById('progressFill');
        if (fill) fill.style.width = doc.progress.percent + '%';
        const text = document.getElementById('progressText');
        if (text) text.innerText = doc.progress.label;
        const overlay = document.getElementById('loadingOverlay');
        if (overlay) overlay.style.display = doc.overlayVisible ? 'flex' : 'none';
        for (const id in doc.disabled) {
          const el = document.getElementById(id);
          if (el) el.disabled = doc.disabled[id];
        }
        for (const id in doc.versions) {
          if (versions[id] === doc.versions[id]) continue;
          versions[id] = doc.versions[id];
          if (id === 'flightMap') await syncMap(); else await syncFragment(id);
        }
      } catch (err) {
        console.error('State poll failed:', err);
      }
    }

    document.addEventListener('DOMContentLoaded', () => {
      const timeTable = document.getElementById('timeTable');
      if (timeTable) {
        timeTable.addEventListener('click', (e) => {
          const row = e.target.closest('tr[data-flight-id]');
          if (!row) return;
          timeTable.querySelectorAll('tr').forEach(r => r.classList.remove('active-flight'));
          row.classList.add('active-flight');
          fetch('/api/flights/' + encodeURIComponent(row.dataset.flightId) + '/select', { method: 'POST' });
        });
      }
      const search = document.getElementById('flightSearch');
      if (search) {
        search.addEventListener('input', (e) => {
          fetch('/api/search?q=' + encodeURIComponent(e.target.value));
        });
      }
      const sort = document.getElementById('sortDelay');
      if (sort) sort.addEventListener('click', () => fetch('/api/sort/delay', { method: 'POST' }));
      const refresh = document.getElementById('refreshDataButton');
      if (refresh) refresh.addEventListener('click', () => fetch('/api/refresh', { method: 'POST' }));

      poll();
      setInterval(poll, 500);
    });
  </script>`

const pageHeader = `
  <header>
    <strong>Flight Dashboard</strong>
    <a href="/">Overview</a>
    <a href="/schedules">Schedules</a>
  </header>`

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Flight Dashboard</title>` + pageStyle + `
</head>
<body>` + pageHeader + `
  <main>
    <section class="panel">
      <h3>Top Delayed Flights</h3>
      <table id="majorDelaysTable"></table>
    </section>
    <section class="panel">
      <h3>Flight Status</h3>
      <div id="flightStatusChart"></div>
    </section>
  </main>` + pageScript + `
</body>
</html>`

const schedulesHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Flight Schedules</title>
  <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css" />
  <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>` + pageStyle + `
</head>
<body>` + pageHeader + `
  <div id="loadingOverlay">
    <div class="progress-box">
      <div class="progress-track"><div id="progressFill"></div></div>
      <div id="progressText"></div>
    </div>
  </div>
  <main>
    <section class="panel controls">
      <input type="text" id="flightSearch" placeholder="Search flight or airport" />
      <button id="sortDelay">Sort by delay</button>
      <button id="refreshDataButton">Refresh data</button>
    </section>
    <section class="panel">
      <h3>Schedules</h3>
      <table id="timeTable"></table>
    </section>
    <section class="panel">
      <h3>Passengers</h3>
      <div id="passengersContainer"><p>Select a flight to see its passengers.</p></div>
    </section>
    <section class="panel">
      <h3>Live Position</h3>
      <div id="flightMap"></div>
    </section>
  </main>` + pageScript + `
</body>
</html>`

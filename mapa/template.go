// Copyright 2026 The MapaSalud Authors
// SPDX-License-Identifier: Apache-2.0

package mapa

import "html/template"

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Mapa de Centros Sanitarios</title>
    <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
    <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
    <style>
        html, body { margin: 0; padding: 0; height: 100%; }
        #map { width: 100%; height: 100%; }
        .page-title {
            position: absolute; top: 10px; left: 50px; z-index: 1000;
            background: white; padding: 8px 16px; border-radius: 6px;
            box-shadow: 0 1px 4px rgba(0,0,0,0.3);
            font-family: sans-serif; font-size: 18px; font-weight: bold;
        }
        .stats-overlay {
            position: absolute; bottom: 20px; left: 10px; z-index: 1000;
            background: white; padding: 10px 14px; border-radius: 6px;
            box-shadow: 0 1px 4px rgba(0,0,0,0.3);
            font-family: sans-serif; font-size: 13px; line-height: 1.6;
        }
        .facility-popup { font-family: sans-serif; font-size: 13px; max-height: 260px; overflow-y: auto; }
        .facility-popup h4 { margin: 0 0 6px 0; }
        .facility-item { margin-bottom: 8px; }
        .facility-name { font-weight: bold; }
    </style>
</head>
<body>
    <div id="map"></div>
    <div class="page-title">Mapa de Centros Sanitarios</div>
    <div class="stats-overlay">
        <strong>Resumen</strong><br>
        Centros: <strong>{{.TotalPretty}}</strong><br>
        En el mapa: <strong>{{.MappedPretty}}</strong><br>
        Marcadores: <strong>{{.Stats.Markers}}</strong>
    </div>
    <script>
        const markersData = {{.MarkersJSON}};

        function facilityDetails(fac) {
            let html = '<div class="facility-info">';
            html += '<strong>ID:</strong> ' + fac.id + ' | <strong>Ciudad:</strong> ' + fac.city + '<br>';
            if (fac.address) {
                html += '<strong>Dirección:</strong> ' + fac.address + '<br>';
            }
            if (fac.phone) {
                html += '<strong>Teléfono:</strong> ' + fac.phone + '<br>';
            }
            if (fac.capacity) {
                html += '<strong>Capacidad:</strong> ' + fac.capacity + '<br>';
            }
            if (fac.specialization && fac.specialization.length > 0) {
                html += '<strong>Especialidades:</strong> ' + fac.specialization.join(', ');
            }
            html += '</div>';
            return html;
        }

        function popupContent(marker) {
            const facs = marker.facilities;
            let html = '<div class="facility-popup">';
            if (facs.length === 1) {
                html += '<h4>' + facs[0].name + '</h4>';
                html += '<div class="facility-item">' + facilityDetails(facs[0]) + '</div>';
            } else {
                html += '<h4>' + facs.length + ' centros en esta ubicación</h4>';
                for (const fac of facs) {
                    html += '<div class="facility-item">';
                    html += '<div class="facility-name">' + fac.name + '</div>';
                    html += facilityDetails(fac);
                    html += '</div>';
                }
            }
            html += '</div>';
            return html;
        }

        const map = L.map('map').setView([40.4, -3.7], 6);
        L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
            attribution: '© OpenStreetMap contributors'
        }).addTo(map);

        const allMarkers = [];
        for (const m of markersData) {
            const marker = L.marker([m.lat, m.lng]).bindPopup(popupContent(m));
            marker.addTo(map);
            allMarkers.push(marker);
        }

        if (allMarkers.length > 0) {
            const group = new L.featureGroup(allMarkers);
            map.fitBounds(group.getBounds().pad(0.1));
        }
    </script>
</body>
</html>
`))

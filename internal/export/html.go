package export

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"

	"github.com/piwi3910/NestCut/internal/model"
)

const threeVersion = "0.161.0"

// viewerSheet is the JSON shape the viewer script consumes. Points are
// [x, y] pairs in sheet millimetres.
type viewerSheet struct {
	Index int          `json:"index"`
	Parts []viewerPart `json:"parts"`
}

type viewerPart struct {
	ID      int            `json:"id"`
	Label   string         `json:"label"`
	Outline [][2]float64   `json:"outline"`
	Holes   [][][2]float64 `json:"holes,omitempty"`
}

func pairs(o model.Outline) [][2]float64 {
	out := make([][2]float64, len(o))
	for i, p := range o {
		out[i] = [2]float64{p.X, p.Y}
	}
	return out
}

func viewerSheets(layout model.SheetLayout) []viewerSheet {
	sheets := make([]viewerSheet, 0, len(layout.Sheets))
	for _, s := range layout.Sheets {
		vs := viewerSheet{Index: s.Index, Parts: make([]viewerPart, 0, len(s.Parts))}
		for _, p := range s.Parts {
			vp := viewerPart{ID: p.PartID, Label: p.Label, Outline: pairs(p.Outline)}
			for _, c := range p.Children {
				vp.Holes = append(vp.Holes, pairs(c.Polygon))
			}
			vs.Parts = append(vs.Parts, vp)
		}
		sheets = append(sheets, vs)
	}
	return sheets
}

// RenderHTML writes a self-contained three.js page showing each sheet as a
// translucent plane with its parts extruded on top, sheets stacked in Z.
func RenderHTML(w io.Writer, layout model.SheetLayout) error {
	data, err := json.Marshal(viewerSheets(layout))
	if err != nil {
		return fmt.Errorf("encode sheets: %w", err)
	}
	return viewerTemplate.Execute(w, struct {
		Width, Height float64
		Utilization   float64
		Parts         int
		Sheets        template.JS
		ThreeVersion  string
	}{
		Width:        layout.Width,
		Height:       layout.Height,
		Utilization:  layoutUtilization(layout),
		Parts:        layout.PartCount(),
		Sheets:       template.JS(data), // json.Marshal escapes <, > and &
		ThreeVersion: threeVersion,
	})
}

// ExportHTML writes the three.js viewer to path. An empty layout writes nothing.
func ExportHTML(path string, layout model.SheetLayout) error {
	if layout.Empty() {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := RenderHTML(f, layout); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var viewerTemplate = template.Must(template.New("viewer").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>NestCut layout</title>
<style>
  body { margin: 0; overflow: hidden; background: #333; }
  #info { position: absolute; top: 8px; width: 100%; text-align: center; color: #fff;
          font-family: sans-serif; background: rgba(0,0,0,0.5); padding: 4px 0; }
</style>
<script type="importmap">
{ "imports": {
  "three": "https://cdn.jsdelivr.net/npm/three@{{.ThreeVersion}}/build/three.module.js",
  "three/addons/": "https://cdn.jsdelivr.net/npm/three@{{.ThreeVersion}}/examples/jsm/"
} }
</script>
</head>
<body>
<div id="info">{{.Parts}} parts on {{printf "%.0f x %.0f" .Width .Height}} mm sheets, {{printf "%.1f" .Utilization}}% utilization. Drag to rotate, scroll to zoom.</div>
<script type="module">
import * as THREE from "three";
import { OrbitControls } from "three/addons/controls/OrbitControls.js";

const SHEET_W = {{.Width}};
const SHEET_H = {{.Height}};
const SHEETS = {{.Sheets}};
const LAYER_GAP = 20;
const PART_DEPTH = 5;
const COLORS = [0x4caf50, 0x2196f3, 0xff9800, 0x9c27b0, 0x00bcd4, 0xf44336, 0xffeb3b, 0x795548];

const scene = new THREE.Scene();
scene.background = new THREE.Color(0x333333);

const camera = new THREE.PerspectiveCamera(60, window.innerWidth / window.innerHeight, 1, 100000);
camera.up.set(0, 0, 1);

const renderer = new THREE.WebGLRenderer({ antialias: true });
renderer.setSize(window.innerWidth, window.innerHeight);
document.body.appendChild(renderer.domElement);

const controls = new OrbitControls(camera, renderer.domElement);
controls.enableDamping = true;

scene.add(new THREE.AmbientLight(0x808080));
const sun = new THREE.DirectionalLight(0xffffff, 0.8);
sun.position.set(1, -1, 2);
scene.add(sun);

function toPath(path, pts) {
  path.moveTo(pts[0][0], pts[0][1]);
  for (let i = 1; i < pts.length; i++) path.lineTo(pts[i][0], pts[i][1]);
  path.closePath();
  return path;
}

SHEETS.forEach((sheet, layer) => {
  const z = layer * LAYER_GAP;

  const plane = new THREE.Mesh(
    new THREE.PlaneGeometry(SHEET_W, SHEET_H),
    new THREE.MeshStandardMaterial({ color: 0xd2b48c, side: THREE.DoubleSide, transparent: true, opacity: 0.6 }));
  plane.position.set(SHEET_W / 2, SHEET_H / 2, z);
  scene.add(plane);

  sheet.parts.forEach((part, i) => {
    if (part.outline.length < 3) return;
    const shape = toPath(new THREE.Shape(), part.outline);
    (part.holes || []).forEach(h => { if (h.length >= 3) shape.holes.push(toPath(new THREE.Path(), h)); });

    const geometry = new THREE.ExtrudeGeometry(shape, { depth: PART_DEPTH, bevelEnabled: false });
    const mesh = new THREE.Mesh(geometry, new THREE.MeshPhongMaterial({ color: COLORS[i % COLORS.length] }));
    mesh.position.z = z;
    mesh.userData = { id: part.id, label: part.label, sheet: sheet.index + 1 };
    scene.add(mesh);

    const edges = new THREE.LineSegments(new THREE.EdgesGeometry(geometry), new THREE.LineBasicMaterial({ color: 0x222222 }));
    edges.position.z = z;
    scene.add(edges);
  });
});

const top = Math.max(SHEETS.length - 1, 0) * LAYER_GAP;
controls.target.set(SHEET_W / 2, SHEET_H / 2, top / 2);
camera.position.set(SHEET_W / 2, -Math.max(SHEET_W, SHEET_H) * 0.8, Math.max(SHEET_W, SHEET_H) + top);
controls.update();

window.addEventListener("resize", () => {
  camera.aspect = window.innerWidth / window.innerHeight;
  camera.updateProjectionMatrix();
  renderer.setSize(window.innerWidth, window.innerHeight);
});

(function animate() {
  requestAnimationFrame(animate);
  controls.update();
  renderer.render(scene, camera);
})();
</script>
</body>
</html>
`))

package viewer

import (
	"fmt"
	"math"
	"time"

	"github.com/tomz197/cubefall/internal/scene"
)

// drawFrame draws one snapshot plus the HUD and flushes it.
func (v *Viewer) drawFrame(snap *scene.Snapshot) error {
	v.canvas.Clear()

	ground := v.camera.ProjectMesh(snap.Ground)
	v.canvas.DrawPolygon(ground[:], true)
	for _, cube := range snap.Cubes {
		corners := v.camera.ProjectMesh(cube)
		v.canvas.DrawPolygon(corners[:], false)
	}

	if err := v.canvas.Render(v.chunkWriter); err != nil {
		return err
	}

	if v.shuttingDown {
		v.drawShutdownScreen()
	} else {
		v.drawHUD(snap.Stats)
	}

	return v.chunkWriter.Flush()
}

// drawHUD writes the stats line and key help over the top row.
func (v *Viewer) drawHUD(st scene.Stats) {
	status := "running"
	switch {
	case st.Paused:
		status = "paused"
	case st.Capped:
		status = "behind"
	}
	line := fmt.Sprintf("FPS %3d  Cubes %4d  Steps %d  %s", st.FPS, st.Cubes, st.Steps, status)
	if v.name != "" {
		line += "  " + v.name
	}
	v.chunkWriter.WriteAt(1, 1, padRight(line, v.cols))

	help := "SPACE pause  R reset  Q quit"
	if v.cols > len(help) {
		v.chunkWriter.WriteAt(1, v.rows, padRight(help, v.cols))
	}
}

// drawShutdownScreen shows the server shutdown countdown.
func (v *Viewer) drawShutdownScreen() {
	centerX, centerY := v.cols/2, v.rows/2
	title := "SERVER SHUTTING DOWN"
	v.chunkWriter.WriteAt(centerX-len(title)/2, centerY-1, title)

	secs := int(math.Ceil(max(v.shutdownTimer, 0)))
	msg := fmt.Sprintf("Disconnecting in %d seconds", secs)
	v.chunkWriter.WriteAt(centerX-len(msg)/2, centerY+1, msg)
}

// idleFor reports how long the viewer has gone without a key press.
func (v *Viewer) idleFor() time.Duration {
	return time.Since(v.lastInput)
}

// padRight pads or cuts s to exactly n bytes so shorter lines overwrite
// longer ones from earlier frames.
func padRight(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) >= n {
		return s[:n]
	}
	b := make([]byte, n)
	copy(b, s)
	for i := len(s); i < n; i++ {
		b[i] = ' '
	}
	return string(b)
}

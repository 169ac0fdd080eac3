package orchestrator

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/maastricht-university/affect-demo/face"
)

const (
	frameTableFile = "frame_level_emotions.csv"
	timelineFile   = "final_emotions.txt"
	segmentsFile   = "segments.json"
	reportFile     = "report.yaml"
)

func newSessionID(now time.Time) string {
	return "session_" + now.Format("20060102-150405") + "_" + uuid.NewString()[:8]
}

func mkSessionDir(outputsRoot, sid string) (string, error) {
	dir := filepath.Join(outputsRoot, sid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// persistFace writes the frame table, the timeline text and the segment list into dir.
func persistFace(dir string, res *FaceResult) error {
	res.FrameTable = filepath.Join(dir, frameTableFile)
	f, err := os.Create(res.FrameTable)
	if err != nil {
		return err
	}
	if err := face.WriteFrameTable(f, res.Rows()); err != nil {
		f.Close()
		return fmt.Errorf("write frame table: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	res.TimelineFile = filepath.Join(dir, timelineFile)
	if err := os.WriteFile(res.TimelineFile, []byte(res.TimelineText()), 0o644); err != nil {
		return fmt.Errorf("write timeline: %w", err)
	}
	return writeJSON(filepath.Join(dir, segmentsFile), res.Segments)
}

func persistReport(r *Report) error {
	return writeYAML(filepath.Join(r.Dir, reportFile), r)
}

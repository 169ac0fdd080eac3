package capture

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestOpenFaceArgs(t *testing.T) {
	o := &OpenFace{Exe: "FeatureExtraction", Device: 2}
	got := o.Args("/data/processed", "live_session")
	want := []string{"-device", "2", "-out_dir", "/data/processed", "-of", "live_session"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if p := CSVPath("/data/processed", "live_session"); p != filepath.Join("/data/processed", "live_session.csv") {
		t.Fatalf("unexpected csv path %q", p)
	}
}

func TestOpenFaceRunMissingBinary(t *testing.T) {
	o := &OpenFace{Exe: filepath.Join(t.TempDir(), "no-such-binary"), Log: quietLogger()}
	if _, err := o.Run(context.Background(), t.TempDir(), "s"); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestRecorderCommandExpandsTemplate(t *testing.T) {
	r := &Recorder{Template: "arecord -q -d {duration} -r {rate} -c {channels} {out}", SampleRate: 16000, Channels: 1}
	got, err := r.Command(20*time.Second, "/tmp/my clip.wav")
	if err != nil {
		t.Fatalf("command: %v", err)
	}
	want := []string{"arecord", "-q", "-d", "20", "-r", "16000", "-c", "1", "/tmp/my clip.wav"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if _, err := (&Recorder{Template: "  "}).Command(time.Second, "x"); err == nil {
		t.Fatal("expected error for empty template")
	}
}

func TestRecorderRecordRunsCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "clip.wav")
	r := &Recorder{Template: "touch {out}", Log: quietLogger()}
	if err := r.Record(context.Background(), time.Second, out); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected recording at %s: %v", out, err)
	}
}

func TestWaitForFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.csv")
	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = os.WriteFile(path, []byte("x"), 0o644)
	}()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := WaitForFile(ctx, path, 5*time.Millisecond); err != nil {
		t.Fatalf("wait: %v", err)
	}

	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := WaitForFile(ctx, filepath.Join(t.TempDir(), "never.csv"), 5*time.Millisecond); err == nil {
		t.Fatal("expected timeout")
	}
}

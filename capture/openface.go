package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// StopGrace is how long a stopped OpenFace process gets to flush its CSV before it is killed.
const StopGrace = 5 * time.Second

// OpenFace drives the FeatureExtraction binary against a webcam.
type OpenFace struct {
	Exe    string
	Dir    string
	Device int
	Log    logrus.FieldLogger
}

// Args returns the command line for writing <outDir>/<name>.csv.
func (o *OpenFace) Args(outDir, name string) []string {
	return []string{
		"-device", fmt.Sprint(o.Device),
		"-out_dir", outDir,
		"-of", name,
	}
}

// CSVPath is where FeatureExtraction writes the feed for name.
func CSVPath(outDir, name string) string {
	return filepath.Join(outDir, name+".csv")
}

func (o *OpenFace) command(ctx context.Context, outDir, name string) (*exec.Cmd, error) {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, o.Exe, o.Args(abs, name)...)
	cmd.Dir = o.Dir
	cmd.Stdout = os.Stdout
	cmd.Cancel = func() error { return cmd.Process.Signal(os.Interrupt) }
	cmd.WaitDelay = StopGrace
	return cmd, nil
}

// Run records until the user closes the OpenFace window and returns the CSV path.
// A non-zero exit is logged, not returned: the CSV written so far is still usable.
func (o *OpenFace) Run(ctx context.Context, outDir, name string) (string, error) {
	cmd, err := o.command(ctx, outDir, name)
	if err != nil {
		return "", err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	o.Log.WithFields(logrus.Fields{"exe": o.Exe, "device": o.Device}).Info("launching OpenFace")
	err = cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		o.Log.Info("OpenFace recording finished")
	case errors.As(err, &exitErr):
		o.Log.WithField("code", exitErr.ExitCode()).Warn("OpenFace exited with an error, analyzing anyway")
	default:
		return "", fmt.Errorf("run openface %s: %w\nStderr: %s", o.Exe, err, stderr.String())
	}
	return CSVPath(outDir, name), nil
}

// Session is a background OpenFace recording.
type Session struct {
	CSV    string
	cmd    *exec.Cmd
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Start launches OpenFace in the background. Call Stop to end the recording.
func (o *OpenFace) Start(ctx context.Context, outDir, name string) (*Session, error) {
	ctx, cancel := context.WithCancel(ctx)
	cmd, err := o.command(ctx, outDir, name)
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start openface %s: %w", o.Exe, err)
	}
	o.Log.WithField("pid", cmd.Process.Pid).Info("OpenFace recording started")

	s := &Session{CSV: CSVPath(outDir, name), cmd: cmd, cancel: cancel, done: make(chan struct{})}
	go func() {
		s.err = cmd.Wait()
		close(s.done)
	}()
	return s, nil
}

// Path is the CSV the session writes to.
func (s *Session) Path() string { return s.CSV }

// Done is closed once OpenFace has exited.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the exit error once Done is closed.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Stop interrupts OpenFace, waits up to StopGrace for it to exit and kills it otherwise.
func (s *Session) Stop() {
	s.cancel()
	select {
	case <-s.done:
	case <-time.After(StopGrace + time.Second):
	}
}

package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Recorder captures microphone audio by running an external command.
// Template placeholders: {duration} {rate} {channels} {out}.
type Recorder struct {
	Template   string
	SampleRate int
	Channels   int
	Log        logrus.FieldLogger
}

func (r *Recorder) Command(duration time.Duration, out string) ([]string, error) {
	fields := strings.Fields(r.Template)
	if len(fields) == 0 {
		return nil, errors.New("record command is empty")
	}
	rep := strings.NewReplacer(
		"{duration}", strconv.Itoa(int(duration.Seconds())),
		"{rate}", strconv.Itoa(r.SampleRate),
		"{channels}", strconv.Itoa(r.Channels),
		"{out}", out,
	)
	for i, f := range fields {
		fields[i] = rep.Replace(f)
	}
	return fields, nil
}

// Record blocks until duration of audio has been written to out.
func (r *Recorder) Record(ctx context.Context, duration time.Duration, out string) error {
	argv, err := r.Command(duration, out)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.Log.WithFields(logrus.Fields{"duration": duration, "out": out}).Info("recording audio")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("record audio: %w\nStderr: %s", err, stderr.String())
	}
	r.Log.WithField("out", out).Info("audio recording complete")
	return nil
}

package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/maastricht-university/affect-demo/face"
)

// LivePoll is how often the growing feed is re-read in live mode.
const LivePoll = 200 * time.Millisecond

type LiveEvent struct {
	Timestamp float64
	Raw       face.Label
	Smoothed  face.Label
}

// Live runs OpenFace and reports a smoothed emotion for every valid frame
// until OpenFace exits or ctx is cancelled.
func (p *Pipeline) Live(ctx context.Context, emit func(LiveEvent)) error {
	sess, err := p.camera.Start(ctx, p.cfg.Paths.Processed, "live_session")
	if err != nil {
		return err
	}
	defer sess.Stop()
	p.log.WithField("csv", sess.Path()).Info("live emotion tracking started")
	return newFollower(sess.Path(), p.faceOptions()).run(ctx, sess.Done(), LivePoll, emit)
}

// follower tails a feed that is still being written.
type follower struct {
	path string
	opts face.Options
	sm   *face.Smoother
	seen int
}

func newFollower(path string, opts face.Options) *follower {
	opts = opts.Normalize()
	return &follower{path: path, opts: opts, sm: face.NewSmoother(opts.Window)}
}

func (f *follower) run(ctx context.Context, done <-chan struct{}, poll time.Duration, emit func(LiveEvent)) error {
	t := time.NewTicker(poll)
	defer t.Stop()
	for {
		if err := f.drain(emit); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return f.drain(emit)
		case <-t.C:
		}
	}
}

// drain processes the complete rows appended since the last call.
// A trailing partial line is left for the next call.
func (f *follower) drain(emit func(LiveEvent)) error {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	end := bytes.LastIndexByte(data, '\n')
	if end < 0 {
		return nil
	}
	fr, err := face.NewFeedReader(bytes.NewReader(data[:end+1]), f.opts)
	if err != nil {
		return err
	}
	for row := 0; ; row++ {
		frame, err := fr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if row < f.seen {
			continue
		}
		if err != nil {
			return err
		}
		f.seen++
		if !frame.Valid(f.opts.MinConfidence) {
			continue
		}
		raw := face.Classify(frame)
		emit(LiveEvent{Timestamp: frame.Timestamp, Raw: raw, Smoothed: f.sm.Push(raw)})
	}
}

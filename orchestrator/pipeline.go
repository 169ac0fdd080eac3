package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/maastricht-university/affect-demo/capture"
	"github.com/maastricht-university/affect-demo/clients"
	cfg "github.com/maastricht-university/affect-demo/config"
	"github.com/maastricht-university/affect-demo/face"
	"github.com/maastricht-university/affect-demo/store"
)

// Services is the set of model endpoints the pipeline calls.
type Services interface {
	SER(ctx context.Context, url, wavPath string) (*clients.SERResp, error)
	Transcribe(ctx context.Context, url, wavPath string) (*clients.STTResp, error)
	TextEmotion(ctx context.Context, url, text string, threshold float64) ([]clients.EmoScore, error)
	GenerateTimeline(ctx context.Context, url string, req clients.TimelineReq) (*clients.TimelineResp, error)
}

// FaceSession is a face recording running in the background.
type FaceSession interface {
	Path() string
	Done() <-chan struct{}
	Stop()
}

// FaceCapture records facial feature feeds.
type FaceCapture interface {
	Run(ctx context.Context, outDir, name string) (string, error)
	Start(ctx context.Context, outDir, name string) (FaceSession, error)
}

// AudioCapture records microphone audio to a WAV file.
type AudioCapture interface {
	Record(ctx context.Context, duration time.Duration, out string) error
}

type Pipeline struct {
	cfg    *cfg.Root
	log    logrus.FieldLogger
	svc    Services
	camera FaceCapture
	audio  AudioCapture
	store  *store.Store
	settle time.Duration
	now    func() time.Time
}

type Option func(*Pipeline)

func WithServices(s Services) Option         { return func(p *Pipeline) { p.svc = s } }
func WithFaceCapture(f FaceCapture) Option   { return func(p *Pipeline) { p.camera = f } }
func WithAudioCapture(a AudioCapture) Option { return func(p *Pipeline) { p.audio = a } }

// WithStore records every run in the session history.
func WithStore(s *store.Store) Option { return func(p *Pipeline) { p.store = s } }

// WithSettle sets how long to wait for OpenFace to close its CSV after stopping.
func WithSettle(d time.Duration) Option { return func(p *Pipeline) { p.settle = d } }

// NewPipeline wires the pipeline from configuration. Options replace the
// default collaborators, which talk to real services and binaries.
func NewPipeline(c *cfg.Root, log logrus.FieldLogger, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:    c,
		log:    log,
		svc:    clients.NewHTTP(c.ServiceTimeout()),
		settle: time.Second,
		now:    time.Now,
	}
	p.camera = openFaceCapture{&capture.OpenFace{
		Exe:    c.OpenFaceExecutable(),
		Dir:    c.Face.OpenFaceDir,
		Device: c.Face.Device,
		Log:    log,
	}}
	p.audio = &capture.Recorder{
		Template:   c.Audio.RecordCommand,
		SampleRate: c.Audio.SampleRate,
		Channels:   c.Audio.Channels,
		Log:        log,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

type openFaceCapture struct{ *capture.OpenFace }

func (o openFaceCapture) Start(ctx context.Context, outDir, name string) (FaceSession, error) {
	return o.OpenFace.Start(ctx, outDir, name)
}

func (p *Pipeline) faceOptions() face.Options {
	return face.Options{Window: p.cfg.Face.Window, MinConfidence: p.cfg.Face.MinConfidence}
}

func (p *Pipeline) newReport(kind store.Kind) (*Report, error) {
	now := p.now()
	r := &Report{SessionID: newSessionID(now), Kind: kind, CreatedAt: now}
	dir, err := mkSessionDir(p.cfg.Paths.Outputs, r.SessionID)
	if err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	r.Dir = dir
	return r, nil
}

func (p *Pipeline) finish(ctx context.Context, r *Report) error {
	if err := persistReport(r); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if p.store != nil {
		if err := p.store.SaveSession(ctx, r.record()); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}
	p.log.WithFields(logrus.Fields{"session": r.SessionID, "dir": r.Dir}).Info("session saved")
	return nil
}

func (p *Pipeline) loadFeed(csvPath string) ([]face.Frame, error) {
	p.log.WithField("csv", csvPath).Info("analyzing face feed")
	return face.LoadFeed(csvPath, p.faceOptions())
}

// analyzeFace turns loaded frames into a timeline and writes the face artifacts into dir.
// An empty session is reported through FaceResult.Empty, not as an error.
func (p *Pipeline) analyzeFace(ctx context.Context, csvPath string, frames []face.Frame, dir, sid string) (*FaceResult, error) {
	log := p.log.WithField("csv", csvPath)
	res := &FaceResult{CSV: csvPath}
	tl, err := face.Build(frames, p.faceOptions())
	res.Dropped = tl.Dropped
	if errors.Is(err, face.ErrEmptySession) {
		res.Empty = true
		log.WithField("dropped", tl.Dropped).Warn("no valid frames after filtering")
		return res, nil
	}
	if err != nil {
		return nil, err
	}

	res.timeline = tl
	res.Frames = len(tl.Frames)
	res.Segments = tl.Segments
	res.Dominant = tl.Dominant()
	if err := persistFace(dir, res); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"frames":   res.Frames,
		"dropped":  res.Dropped,
		"segments": len(res.Segments),
	}).Info("face analysis complete")

	if url := p.cfg.Services.Visualization.URL; url != "" {
		req := clients.TimelineReq{SessionID: sid, OutputDir: dir}
		for _, s := range res.Segments {
			req.Segments = append(req.Segments, clients.TimelineSegment{Start: s.Start, End: s.End, Label: string(s.Label)})
		}
		chart, err := p.svc.GenerateTimeline(ctx, url, req)
		if err != nil {
			log.WithError(err).Warn("timeline chart failed")
		} else {
			res.Chart = chart.Path
		}
	}
	return res, nil
}

// AnalyzeFace analyzes an existing OpenFace CSV. No session is created when
// the feed cannot be read.
func (p *Pipeline) AnalyzeFace(ctx context.Context, csvPath string) (*Report, error) {
	frames, err := p.loadFeed(csvPath)
	if err != nil {
		return nil, err
	}
	r, err := p.newReport(store.KindFace)
	if err != nil {
		return nil, err
	}
	if r.Face, err = p.analyzeFace(ctx, csvPath, frames, r.Dir, r.SessionID); err != nil {
		return nil, err
	}
	return r, p.finish(ctx, r)
}

// RecordFace records with OpenFace until the window is closed, then analyzes the feed.
func (p *Pipeline) RecordFace(ctx context.Context) (*Report, error) {
	csvPath, err := p.camera.Run(ctx, p.cfg.Paths.Processed, "live_session")
	if err != nil {
		return nil, err
	}
	if err := sleepCtx(ctx, p.settle); err != nil {
		return nil, err
	}
	return p.AnalyzeFace(ctx, csvPath)
}

func (p *Pipeline) recordingPath(prefix string) string {
	return filepath.Join(p.cfg.Paths.Recordings, prefix+"_"+p.now().Format("2006-01-02-15-04-05")+".wav")
}

// ensureAudio records a clip unless wavPath is already set.
func (p *Pipeline) ensureAudio(ctx context.Context, wavPath, prefix string) (string, error) {
	if wavPath != "" {
		return wavPath, nil
	}
	wavPath = p.recordingPath(prefix)
	if err := p.audio.Record(ctx, p.cfg.AudioDuration(), wavPath); err != nil {
		return "", err
	}
	return wavPath, nil
}

func (p *Pipeline) voice(ctx context.Context, r *Report) {
	r.VoiceEmotion = NotAvailable
	res, err := p.svc.SER(ctx, p.cfg.Services.SER.URL, r.Audio)
	if err != nil {
		p.log.WithError(err).Warn("voice emotion failed")
		return
	}
	r.VoiceEmotion = res.Label
	p.log.WithField("emotion", res.Label).Info("voice emotion detected")
}

func (p *Pipeline) transcribe(ctx context.Context, r *Report) {
	r.Transcript = NotAvailable
	r.TextEmotion = NotAvailable
	res, err := p.svc.Transcribe(ctx, p.cfg.Services.STT.URL, r.Audio)
	if err != nil {
		p.log.WithError(err).Warn("transcription failed")
		return
	}
	r.Transcript = res.Text
	p.log.WithField("chars", len(res.Text)).Info("transcription complete")

	scores, err := p.svc.TextEmotion(ctx, p.cfg.Services.TextEmotion.URL, res.Text, p.cfg.TextEmotion.Threshold)
	if err != nil {
		p.log.WithError(err).Warn("text emotion failed")
		return
	}
	if len(scores) > 0 {
		r.TextEmotions = scores
		r.TextEmotion = clients.FormatScores(scores)
	}
}

// Voice runs speech emotion recognition on wavPath, recording it first when empty.
func (p *Pipeline) Voice(ctx context.Context, wavPath string) (*Report, error) {
	wavPath, err := p.ensureAudio(ctx, wavPath, "voice")
	if err != nil {
		return nil, err
	}
	r, err := p.newReport(store.KindVoice)
	if err != nil {
		return nil, err
	}
	r.Audio = wavPath
	p.voice(ctx, r)
	return r, p.finish(ctx, r)
}

// Transcribe runs speech to text and text emotion on wavPath, recording it first when empty.
func (p *Pipeline) Transcribe(ctx context.Context, wavPath string) (*Report, error) {
	wavPath, err := p.ensureAudio(ctx, wavPath, "mic")
	if err != nil {
		return nil, err
	}
	r, err := p.newReport(store.KindTranscribe)
	if err != nil {
		return nil, err
	}
	r.Audio = wavPath
	p.transcribe(ctx, r)
	return r, p.finish(ctx, r)
}

// Full records audio and video together, then runs voice and speech analysis
// concurrently and face analysis last. Analyzer failures are reported as N/A;
// only capture and persistence errors are returned.
func (p *Pipeline) Full(ctx context.Context) (*Report, error) {
	r, err := p.newReport(store.KindFull)
	if err != nil {
		return nil, err
	}
	stamp := p.now().Format("2006-01-02-15-04-05")
	r.Audio = filepath.Join(p.cfg.Paths.Recordings, "full_analysis_"+stamp+".wav")
	csvName := "full_analysis_" + stamp

	p.log.WithField("duration", p.cfg.AudioDuration()).Info("starting parallel recording")
	sess, err := p.camera.Start(ctx, p.cfg.Paths.Processed, csvName)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer sess.Stop()
		return p.audio.Record(gctx, p.cfg.AudioDuration(), r.Audio)
	})
	g.Go(func() error {
		select {
		case <-sess.Done():
		case <-gctx.Done():
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	p.log.Info("recording complete")
	if err := sleepCtx(ctx, p.settle); err != nil {
		return nil, err
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error { p.voice(gctx, r); return nil })
	g.Go(func() error { p.transcribe(gctx, r); return nil })
	_ = g.Wait()

	frames, err := p.loadFeed(sess.Path())
	if err == nil {
		r.Face, err = p.analyzeFace(ctx, sess.Path(), frames, r.Dir, r.SessionID)
	}
	if err != nil {
		p.log.WithError(err).Warn("face analysis failed")
	}

	return r, p.finish(ctx, r)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

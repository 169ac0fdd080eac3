package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Service struct {
	URL string `yaml:"url" mapstructure:"url"`
}
type Services struct {
	SER            Service `yaml:"ser" mapstructure:"ser"`
	STT            Service `yaml:"stt" mapstructure:"stt"`
	TextEmotion    Service `yaml:"text_emotion" mapstructure:"text_emotion"`
	Visualization  Service `yaml:"visualization" mapstructure:"visualization"`
	TimeoutSeconds int     `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}
type Audio struct {
	SampleRate      int    `yaml:"sample_rate" mapstructure:"sample_rate"`
	Channels        int    `yaml:"channels" mapstructure:"channels"`
	DurationSeconds int    `yaml:"duration_seconds" mapstructure:"duration_seconds"`
	RecordCommand   string `yaml:"record_command" mapstructure:"record_command"`
}
type Face struct {
	OpenFaceDir   string  `yaml:"openface_dir" mapstructure:"openface_dir"`
	OpenFaceExe   string  `yaml:"openface_exe" mapstructure:"openface_exe"`
	Device        int     `yaml:"device" mapstructure:"device"`
	Window        int     `yaml:"window" mapstructure:"window"`
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
}
type TextEmotion struct {
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
}
type Paths struct {
	Data       string `yaml:"data" mapstructure:"data"`
	Recordings string `yaml:"recordings" mapstructure:"recordings"`
	Processed  string `yaml:"processed" mapstructure:"processed"`
	Outputs    string `yaml:"outputs" mapstructure:"outputs"`
	Database   string `yaml:"database" mapstructure:"database"`
}
type Root struct {
	Pipeline struct {
		Name      string `yaml:"name" mapstructure:"name"`
		Version   string `yaml:"version" mapstructure:"version"`
		LogLvl    string `yaml:"log_level" mapstructure:"log_level"`
		LogFormat string `yaml:"log_format" mapstructure:"log_format"`
	} `yaml:"pipeline" mapstructure:"pipeline"`
	Audio       Audio       `yaml:"audio" mapstructure:"audio"`
	Services    Services    `yaml:"services" mapstructure:"services"`
	Face        Face        `yaml:"face" mapstructure:"face"`
	TextEmotion TextEmotion `yaml:"text_emotion" mapstructure:"text_emotion"`
	Paths       Paths       `yaml:"paths" mapstructure:"paths"`

	// File is the config file that was read, empty when only defaults apply.
	File string `yaml:"-" mapstructure:"-"`
}

const envPrefix = "AFFECT"

var defaults = map[string]any{
	"pipeline.name":              "affect-demo",
	"pipeline.version":           "0.1.0",
	"pipeline.log_level":         "info",
	"pipeline.log_format":        "text",
	"audio.sample_rate":          16000,
	"audio.channels":             1,
	"audio.duration_seconds":     20,
	"audio.record_command":       "arecord -q -d {duration} -f S16_LE -r {rate} -c {channels} {out}",
	"services.ser.url":           "http://localhost:8001",
	"services.stt.url":           "http://localhost:8002",
	"services.text_emotion.url":  "http://localhost:8003",
	"services.visualization.url": "",
	"services.timeout_seconds":   60,
	"face.openface_dir":          filepath.Join("external", "openface"),
	"face.openface_exe":          "FeatureExtraction",
	"face.device":                0,
	"face.window":                10,
	"face.min_confidence":        0.8,
	"text_emotion.threshold":     0.1,
	"paths.data":                 "data",
	"paths.recordings":           filepath.Join("data", "recordings"),
	"paths.processed":            filepath.Join("data", "processed"),
	"paths.outputs":              filepath.Join("data", "analysis"),
	"paths.database":             filepath.Join("data", "sessions.db"),
}

// Load reads the configuration. An explicit path must exist; otherwise the
// usual locations are tried and defaults apply when none is found.
// Environment variables such as AFFECT_FACE_WINDOW override file values.
func Load(path string) (*Root, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = guess()
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Root
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func guess() string {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	for _, p := range []string{
		filepath.Join("config", env, "config.yaml"),
		"config.yaml",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *Root) Validate() error {
	var errs []error
	if c.Face.Window < 1 {
		errs = append(errs, fmt.Errorf("face.window must be at least 1, got %d", c.Face.Window))
	}
	if c.Face.MinConfidence <= 0 || c.Face.MinConfidence >= 1 {
		errs = append(errs, fmt.Errorf("face.min_confidence must be in (0,1), got %g", c.Face.MinConfidence))
	}
	if c.Audio.SampleRate <= 0 || c.Audio.Channels <= 0 {
		errs = append(errs, errors.New("audio.sample_rate and audio.channels must be positive"))
	}
	if c.Audio.DurationSeconds <= 0 {
		errs = append(errs, fmt.Errorf("audio.duration_seconds must be positive, got %d", c.Audio.DurationSeconds))
	}
	if c.TextEmotion.Threshold < 0 || c.TextEmotion.Threshold >= 1 {
		errs = append(errs, fmt.Errorf("text_emotion.threshold must be in [0,1), got %g", c.TextEmotion.Threshold))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the data directories the pipeline writes to.
func (c *Root) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.Data, c.Paths.Recordings, c.Paths.Processed, c.Paths.Outputs, filepath.Dir(c.Paths.Database)} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func (c *Root) OpenFaceExecutable() string {
	if filepath.IsAbs(c.Face.OpenFaceExe) || c.Face.OpenFaceDir == "" {
		return c.Face.OpenFaceExe
	}
	return filepath.Join(c.Face.OpenFaceDir, c.Face.OpenFaceExe)
}

func (c *Root) AudioDuration() time.Duration { return DurSeconds(c.Audio.DurationSeconds) }

func (c *Root) ServiceTimeout() time.Duration { return DurSeconds(c.Services.TimeoutSeconds) }

func DurSeconds(n int) time.Duration { return time.Duration(n) * time.Second }

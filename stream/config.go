package stream

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the YAML configuration of the ledflow daemon.
type Config struct {
	Mqtt struct {
		URL      string `yaml:"url"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Topics   struct {
			Stream  string `yaml:"stream"`
			Control string `yaml:"control"`
			Cues    string `yaml:"cues"`
			Status  string `yaml:"status"`
		} `yaml:"topics"`
	} `yaml:"mqtt"`
	FrameRate float64        `yaml:"frameRate"`
	Listen    string         `yaml:"listen"`
	Log       LogConfig      `yaml:"log"`
	Timeline  TimelineConfig `yaml:"timeline"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// TimelineConfig describes the show: strip layers, their curves, and the
// sound cues played alongside them.
type TimelineConfig struct {
	Duration     float64       `yaml:"duration"`
	Autoreverses bool          `yaml:"autoreverses"`
	RepeatCount  float64       `yaml:"repeatCount"`
	Autoplay     bool          `yaml:"autoplay"`
	Sounds       []string      `yaml:"sounds"`
	Layers       []LayerConfig `yaml:"layers"`
	Cues         []CueConfig   `yaml:"cues"`
}

// LayerConfig places a layer on the strip.
type LayerConfig struct {
	Name   string        `yaml:"name"`
	Start  int           `yaml:"start"`
	Length int           `yaml:"length"`
	Trail  *TrailConfig  `yaml:"trail"`
	Curves []CurveConfig `yaml:"curves"`
}

// TrailConfig paints a repeating gradient along the layer; animate the
// "phase" property to move it.
type TrailConfig struct {
	Table      GradientTable `yaml:"table"`
	Length     int           `yaml:"length"`
	Saturation float64       `yaml:"saturation"`
	Luminance  float64       `yaml:"luminance"`
}

// CurveConfig is one property animation. Values are numbers or "#rrggbb"
// colours; a gradient generates colour values instead. Every curve runs for
// the timeline's duration.
type CurveConfig struct {
	Path     string          `yaml:"path"`
	Timing   string          `yaml:"timing"`
	Values   []interface{}   `yaml:"values"`
	KeyTimes []float64       `yaml:"keyTimes"`
	Gradient *GradientConfig `yaml:"gradient"`
}

// GradientConfig samples a GradientTable into evenly spaced colour values.
type GradientConfig struct {
	Table      GradientTable `yaml:"table"`
	Steps      int           `yaml:"steps"`
	Saturation float64       `yaml:"saturation"`
	Luminance  float64       `yaml:"luminance"`
}

// CueConfig schedules a sound relative to the timeline's play instant.
type CueConfig struct {
	Sound string  `yaml:"sound"`
	Delay float64 `yaml:"delay"`
}

const (
	defaultFrameRate = 30.0
	defaultListen    = ":3000"
)

// LoadConfig reads, defaults and validates the config at path.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.SetStrict(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Broker credentials can be kept out of the YAML file.
const (
	envMqttURL      = "LEDFLOW_MQTT_URL"
	envMqttUsername = "LEDFLOW_MQTT_USERNAME"
	envMqttPassword = "LEDFLOW_MQTT_PASSWORD"
)

func (c *Config) applyEnv() {
	if v := os.Getenv(envMqttURL); v != "" {
		c.Mqtt.URL = v
	}
	if v := os.Getenv(envMqttUsername); v != "" {
		c.Mqtt.Username = v
	}
	if v := os.Getenv(envMqttPassword); v != "" {
		c.Mqtt.Password = v
	}
}

func (c *Config) applyDefaults() {
	if c.FrameRate == 0 {
		c.FrameRate = defaultFrameRate
	}
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	topics := &c.Mqtt.Topics
	if topics.Stream == "" {
		topics.Stream = "home/xmastree/stream"
	}
	if topics.Control == "" {
		topics.Control = "home/xmastree/control"
	}
	if topics.Cues == "" {
		topics.Cues = "home/xmastree/cues"
	}
	if topics.Status == "" {
		topics.Status = "home/xmastree/status"
	}
}

// Validate reports the first problem found in the config.
func (c *Config) Validate() error {
	if c.Mqtt.URL == "" {
		return errors.New("mqtt.url is required")
	}
	if c.FrameRate < 0 {
		return fmt.Errorf("frameRate must be positive, got %v", c.FrameRate)
	}

	tl := c.Timeline
	if tl.Duration < 0 {
		return fmt.Errorf("timeline.duration must not be negative, got %v", tl.Duration)
	}
	if tl.RepeatCount < 0 {
		return fmt.Errorf("timeline.repeatCount must not be negative, got %v", tl.RepeatCount)
	}
	if tl.Duration <= 0 && hasCurves(tl.Layers) {
		return fmt.Errorf("timeline.duration must be positive when layers have curves, got %v", tl.Duration)
	}
	for i, l := range tl.Layers {
		if l.Length <= 0 {
			return fmt.Errorf("timeline.layers[%d] (%s): length must be positive", i, l.Name)
		}
		if l.Trail != nil && (l.Trail.Length <= 0 || len(l.Trail.Table) == 0) {
			return fmt.Errorf("timeline.layers[%d] (%s): trail needs a table and a positive length", i, l.Name)
		}
		for j, cc := range l.Curves {
			if cc.Path == "" {
				return fmt.Errorf("timeline.layers[%d].curves[%d]: path is required", i, j)
			}
			if len(cc.Values) == 0 && cc.Gradient == nil {
				return fmt.Errorf("timeline.layers[%d].curves[%d] (%s): values or gradient required", i, j, cc.Path)
			}
		}
	}
	for i, cue := range tl.Cues {
		if cue.Delay < 0 {
			return fmt.Errorf("timeline.cues[%d] (%s): delay must not be negative", i, cue.Sound)
		}
	}
	return nil
}

func hasCurves(layers []LayerConfig) bool {
	for _, l := range layers {
		if len(l.Curves) > 0 {
			return true
		}
	}
	return false
}

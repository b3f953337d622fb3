// Package config loads the arview settings from an optional YAML file and
// ARVIEW_ environment variables.
package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/zeusync/arview/internal/controller"
	"github.com/zeusync/arview/internal/core/capture"
	"github.com/zeusync/arview/internal/core/gesture"
	"github.com/zeusync/arview/internal/core/manipulation"
	"github.com/zeusync/arview/internal/core/observability/log"
	"github.com/zeusync/arview/internal/server"
	"github.com/zeusync/arview/internal/storage"
)

const (
	// FileName is looked up in the working directory when no path is given.
	FileName  = "arview"
	EnvPrefix = "ARVIEW"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Encoding    string `mapstructure:"encoding" yaml:"encoding"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

func (c LogConfig) Options() log.Options {
	return log.Options{
		Level:       log.ParseLevel(c.Level),
		Encoding:    c.Encoding,
		Development: c.Development,
	}
}

type PickingConfig struct {
	ExcludeLocked bool `mapstructure:"excludeLocked" yaml:"excludeLocked"`
}

type CatalogConfig struct {
	// Path to a YAML model catalog. Empty uses the built-in catalog.
	Path string `mapstructure:"path" yaml:"path"`
}

type Config struct {
	Server       server.Config       `mapstructure:"server" yaml:"server"`
	Log          LogConfig           `mapstructure:"log" yaml:"log"`
	Gesture      gesture.Config      `mapstructure:"gesture" yaml:"gesture"`
	Manipulation manipulation.Config `mapstructure:"manipulation" yaml:"manipulation"`
	Picking      PickingConfig       `mapstructure:"picking" yaml:"picking"`
	Capture      capture.Config      `mapstructure:"capture" yaml:"capture"`
	Storage      storage.Config      `mapstructure:"storage" yaml:"storage"`
	Catalog      CatalogConfig       `mapstructure:"catalog" yaml:"catalog"`
	Controller   controller.Config   `mapstructure:"controller" yaml:"controller"`
}

func Default() Config {
	return Config{
		Server:       server.DefaultServerConfig(),
		Log:          LogConfig{Level: "info", Encoding: "json"},
		Gesture:      gesture.DefaultConfig(),
		Manipulation: manipulation.DefaultConfig(),
		Capture:      capture.DefaultConfig(),
		Storage:      storage.Config{Path: "arview.db"},
		Controller:   controller.DefaultConfig(),
	}
}

// ControllerConfig merges the picking section into the controller settings.
func (c Config) ControllerConfig() controller.Config {
	cfg := c.Controller
	cfg.ExcludeLocked = c.Picking.ExcludeLocked
	return cfg
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.listenAddr", d.Server.ListenAddr)
	v.SetDefault("server.readTimeout", d.Server.ReadTimeout)
	v.SetDefault("server.writeTimeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdownTimeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.maxUploadBytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.maxMessageSize", d.Server.MaxMessageSize)
	v.SetDefault("server.sendBufferSize", d.Server.SendBufferSize)
	v.SetDefault("server.allowedOrigins", d.Server.AllowedOrigins)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.encoding", d.Log.Encoding)
	v.SetDefault("log.development", d.Log.Development)

	v.SetDefault("gesture.deadZone", d.Gesture.DeadZone)
	v.SetDefault("gesture.minPinchRatio", d.Gesture.MinPinchRatio)
	v.SetDefault("gesture.maxPinchRatio", d.Gesture.MaxPinchRatio)
	v.SetDefault("gesture.scaleDragSensitivity", d.Gesture.ScaleDragSensitivity)
	v.SetDefault("gesture.deselectOnEmptyTap", d.Gesture.DeselectOnEmptyTap)
	v.SetDefault("gesture.pinchRequiresHit", d.Gesture.PinchRequiresHit)

	v.SetDefault("manipulation.moveSensitivity", d.Manipulation.MoveSensitivity)
	v.SetDefault("manipulation.rotateSensitivity", d.Manipulation.RotateSensitivity)
	v.SetDefault("manipulation.horizontalOnly", d.Manipulation.HorizontalOnly)
	v.SetDefault("manipulation.minScale", d.Manipulation.MinScale)
	v.SetDefault("manipulation.maxScale", d.Manipulation.MaxScale)
	v.SetDefault("manipulation.scaleUpFactor", d.Manipulation.ScaleUpFactor)
	v.SetDefault("manipulation.scaleDownFactor", d.Manipulation.ScaleDownFactor)

	v.SetDefault("picking.excludeLocked", d.Picking.ExcludeLocked)

	v.SetDefault("capture.format", d.Capture.Format)
	v.SetDefault("capture.quality", d.Capture.Quality)
	v.SetDefault("capture.caption", d.Capture.Caption)
	v.SetDefault("capture.filePrefix", d.Capture.FilePrefix)

	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("catalog.path", d.Catalog.Path)

	v.SetDefault("controller.tickRate", d.Controller.TickRate)
	v.SetDefault("controller.queueSize", d.Controller.QueueSize)
	v.SetDefault("controller.topic", d.Controller.Topic)
}

// Load reads path, or arview.yaml from the working directory when path is
// empty. A missing default file is not an error; a missing explicit one is.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, "error reading config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "error decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	m := c.Manipulation
	switch {
	case m.MoveSensitivity <= 0:
		return errors.Wrap(ErrInvalidConfig, "manipulation.moveSensitivity must be positive")
	case m.RotateSensitivity <= 0:
		return errors.Wrap(ErrInvalidConfig, "manipulation.rotateSensitivity must be positive")
	case m.MinScale <= 0:
		return errors.Wrap(ErrInvalidConfig, "manipulation.minScale must be positive")
	case m.MinScale > m.MaxScale:
		return errors.Wrapf(ErrInvalidConfig, "manipulation.minScale %g exceeds maxScale %g", m.MinScale, m.MaxScale)
	case m.ScaleUpFactor <= 1 || m.ScaleDownFactor <= 0 || m.ScaleDownFactor >= 1:
		return errors.Wrap(ErrInvalidConfig, "manipulation scale factors must be above and below 1")
	}

	g := c.Gesture
	switch {
	case g.DeadZone < 0:
		return errors.Wrap(ErrInvalidConfig, "gesture.deadZone must not be negative")
	case g.ScaleDragSensitivity <= 0:
		return errors.Wrap(ErrInvalidConfig, "gesture.scaleDragSensitivity must be positive")
	case g.MinPinchRatio <= 0 || g.MinPinchRatio > g.MaxPinchRatio:
		return errors.Wrapf(ErrInvalidConfig, "gesture pinch ratio range [%g, %g]", g.MinPinchRatio, g.MaxPinchRatio)
	}

	if c.Controller.TickRate <= 0 || c.Controller.TickRate > controller.MaxTickRate {
		return errors.Wrapf(ErrInvalidConfig, "controller.tickRate %d out of range [1, %d]", c.Controller.TickRate, controller.MaxTickRate)
	}
	if c.Controller.QueueSize <= 0 {
		return errors.Wrap(ErrInvalidConfig, "controller.queueSize must be positive")
	}
	if err := c.Capture.Validate(); err != nil {
		return errors.Wrap(err, "capture")
	}
	if err := c.Server.Validate(); err != nil {
		return errors.Wrap(err, "server")
	}
	return nil
}

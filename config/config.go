// Package config loads aptctl settings from a file, the environment and
// command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/arloliu/go-apt/apt"
	"github.com/arloliu/go-apt/logger"
	"github.com/arloliu/go-apt/serialport"
	"github.com/arloliu/go-apt/transport"
	"github.com/arloliu/go-apt/units"
)

// EnvPrefix prefixes environment overrides: port.name is read from APT_PORT_NAME.
const EnvPrefix = "APT"

// ErrInvalidConfig indicates a setting that failed validation.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// PortConfig selects the byte stream to the controller.
type PortConfig struct {
	Name        string        `mapstructure:"name"`
	Baud        int           `mapstructure:"baud"`
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
	// TCPAddr, when set, reaches the controller through a serial device server
	// instead of the local port Name.
	TCPAddr string `mapstructure:"tcpAddr"`
}

// StageConfig addresses the stage and selects its scale factors.
type StageConfig struct {
	Model       string `mapstructure:"model"`
	Destination uint8  `mapstructure:"destination"`
	Source      uint8  `mapstructure:"source"`
	Channel     uint8  `mapstructure:"channel"`
}

// TimeoutConfig holds protocol timings.
type TimeoutConfig struct {
	Home   time.Duration `mapstructure:"home"`
	Move   time.Duration `mapstructure:"move"`
	Settle time.Duration `mapstructure:"settle"`
	Poll   time.Duration `mapstructure:"poll"`
	Reply  time.Duration `mapstructure:"reply"`
}

// LoggingConfig holds the log level.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr      string `mapstructure:"addr"`
	Namespace string `mapstructure:"namespace"`
}

// Config is the top-level aptctl configuration.
type Config struct {
	Port     PortConfig    `mapstructure:"port"`
	Stage    StageConfig   `mapstructure:"stage"`
	Timeouts TimeoutConfig `mapstructure:"timeouts"`
	Logging  LoggingConfig `mapstructure:"logging"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"port":         "port.name",
	"baud":         "port.baud",
	"tcp":          "port.tcpAddr",
	"model":        "stage.model",
	"dest":         "stage.destination",
	"source":       "stage.source",
	"channel":      "stage.channel",
	"home-timeout": "timeouts.home",
	"move-timeout": "timeouts.move",
	"log-level":    "logging.level",
	"metrics-addr": "metrics.addr",
}

// RegisterFlags defines the flags Load understands on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("port", "p", "", "serial port name, e.g. /dev/ttyUSB0")
	fs.Int("baud", serialport.DefaultBaudRate, "serial baud rate")
	fs.String("tcp", "", "host:port of a serial device server, used instead of --port")
	fs.StringP("model", "m", "MST", "stage model, selects the scale factors (MST or LST)")
	fs.Uint8("dest", 0x50, "destination bus address")
	fs.Uint8("source", 0x01, "source bus address")
	fs.Uint8P("channel", "c", 1, "stage channel")
	fs.Duration("home-timeout", apt.DefaultHomeTimeout, "homing deadline")
	fs.Duration("move-timeout", apt.DefaultMoveTimeout, "move deadline")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address while running")
}

// Load reads the configuration.
//
// path names a YAML, TOML or JSON file; when empty, aptctl.yaml is looked up
// in the working directory and /etc/aptctl, and a missing file is not an
// error. Environment variables prefixed with APT_ override the file, and
// flags set on fs (which may be nil) override both.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/aptctl")
		v.SetConfigName("aptctl")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := bindFlags(v, fs); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port.name", "")
	v.SetDefault("port.baud", serialport.DefaultBaudRate)
	v.SetDefault("port.readTimeout", serialport.DefaultReadTimeout)
	v.SetDefault("port.tcpAddr", "")

	v.SetDefault("stage.model", units.MST.Name)
	v.SetDefault("stage.destination", 0x50)
	v.SetDefault("stage.source", 0x01)
	v.SetDefault("stage.channel", 1)

	v.SetDefault("timeouts.home", apt.DefaultHomeTimeout)
	v.SetDefault("timeouts.move", apt.DefaultMoveTimeout)
	v.SetDefault("timeouts.settle", apt.DefaultSettleDelay)
	v.SetDefault("timeouts.poll", transport.DefaultPollInterval)
	v.SetDefault("timeouts.reply", transport.DefaultReplyTimeout)

	v.SetDefault("logging.level", "info")

	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.namespace", "apt")
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("config: bind flag %s: %w", name, err)
		}
	}

	return nil
}

// Validate checks every setting against the limits of the components it configures.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Port.Name == "" && c.Port.TCPAddr == "" {
		invalid("port.name or port.tcpAddr is required")
	}
	if c.Port.Baud <= 0 {
		invalid("port.baud %d must be positive", c.Port.Baud)
	}
	if c.Port.ReadTimeout < serialport.MinReadTimeout || c.Port.ReadTimeout > serialport.MaxReadTimeout {
		invalid("port.readTimeout %v out of range", c.Port.ReadTimeout)
	}

	if _, err := units.ForModel(c.Stage.Model); err != nil {
		invalid("stage.model: %v", err)
	}
	if err := c.Address().Validate(); err != nil {
		invalid("stage.destination: %v", err)
	}
	if c.Stage.Channel == 0 {
		invalid("stage.channel must start at 1")
	}

	if c.Timeouts.Home <= 0 || c.Timeouts.Home > apt.MaxTimeout {
		invalid("timeouts.home %v out of range", c.Timeouts.Home)
	}
	if c.Timeouts.Move <= 0 || c.Timeouts.Move > apt.MaxTimeout {
		invalid("timeouts.move %v out of range", c.Timeouts.Move)
	}
	if c.Timeouts.Settle < 0 || c.Timeouts.Settle > apt.MaxSettleDelay {
		invalid("timeouts.settle %v out of range", c.Timeouts.Settle)
	}
	if c.Timeouts.Poll < transport.MinPollInterval || c.Timeouts.Poll > transport.MaxPollInterval {
		invalid("timeouts.poll %v out of range", c.Timeouts.Poll)
	}
	if c.Timeouts.Reply < 0 || c.Timeouts.Reply > transport.MaxReplyTimeout {
		invalid("timeouts.reply %v out of range", c.Timeouts.Reply)
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		invalid("logging.level: %v", err)
	}

	return errors.Join(errs...)
}

// Address returns the stage address.
func (c *Config) Address() apt.Address {
	return apt.Address{Destination: c.Stage.Destination, Source: c.Stage.Source, Channel: c.Stage.Channel}
}

// ScaleFactors returns the scale factors of the configured stage model.
func (c *Config) ScaleFactors() (units.ScaleFactors, error) {
	return units.ForModel(c.Stage.Model)
}

// PortOptions returns the options for serialport.Open and serialport.DialTCP.
func (c *Config) PortOptions(l logger.Logger) []serialport.Option {
	return []serialport.Option{
		serialport.WithBaudRate(c.Port.Baud),
		serialport.WithReadTimeout(c.Port.ReadTimeout),
		serialport.WithLogger(l),
	}
}

// SessionOptions returns the options for transport.NewSession.
func (c *Config) SessionOptions(l logger.Logger) []transport.SessionOption {
	name := c.Port.Name
	if c.Port.TCPAddr != "" {
		name = c.Port.TCPAddr
	}

	return []transport.SessionOption{
		transport.WithName(name),
		transport.WithPollInterval(c.Timeouts.Poll),
		transport.WithReplyTimeout(c.Timeouts.Reply),
		transport.WithLogger(l),
	}
}

// ControllerOptions returns the options for apt.NewController.
func (c *Config) ControllerOptions(l logger.Logger) []apt.Option {
	return []apt.Option{
		apt.WithSettleDelay(c.Timeouts.Settle),
		apt.WithHomeTimeout(c.Timeouts.Home),
		apt.WithMoveTimeout(c.Timeouts.Move),
		apt.WithLogger(l),
	}
}

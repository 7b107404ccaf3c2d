package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/go-apt/apt"
	"github.com/arloliu/go-apt/logger"
	"github.com/arloliu/go-apt/transport"
	"github.com/arloliu/go-apt/units"
)

const sampleYAML = `
port:
  name: /dev/ttyUSB1
  baud: 57600
  readTimeout: 20ms
stage:
  model: lst
  destination: 0x21
  channel: 2
timeouts:
  home: 30s
  settle: 0s
logging:
  level: debug
metrics:
  addr: ":9100"
`

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "aptctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_Defaults(t *testing.T) {
	require := require.New(t)
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(err)

	require.Empty(cfg.Port.Name)
	require.Equal(115200, cfg.Port.Baud)
	require.Equal("MST", cfg.Stage.Model)
	require.Equal(uint8(0x50), cfg.Stage.Destination)
	require.Equal(uint8(0x01), cfg.Stage.Source)
	require.Equal(uint8(1), cfg.Stage.Channel)
	require.Equal(apt.DefaultHomeTimeout, cfg.Timeouts.Home)
	require.Equal(apt.DefaultSettleDelay, cfg.Timeouts.Settle)
	require.Equal(transport.DefaultPollInterval, cfg.Timeouts.Poll)
	require.Equal(transport.DefaultReplyTimeout, cfg.Timeouts.Reply)
	require.Equal("info", cfg.Logging.Level)
	require.Equal("apt", cfg.Metrics.Namespace)

	// no port configured
	require.ErrorIs(cfg.Validate(), ErrInvalidConfig)
}

func TestLoad_File(t *testing.T) {
	require := require.New(t)

	cfg, err := Load(writeFile(t, sampleYAML), nil)
	require.NoError(err)
	require.NoError(cfg.Validate())

	require.Equal("/dev/ttyUSB1", cfg.Port.Name)
	require.Equal(57600, cfg.Port.Baud)
	require.Equal(20*time.Millisecond, cfg.Port.ReadTimeout)
	require.Equal(uint8(0x21), cfg.Stage.Destination)
	require.Equal(uint8(2), cfg.Stage.Channel)
	require.Equal(30*time.Second, cfg.Timeouts.Home)
	require.Equal(apt.DefaultMoveTimeout, cfg.Timeouts.Move)
	require.Zero(cfg.Timeouts.Settle)
	require.Equal(":9100", cfg.Metrics.Addr)

	sf, err := cfg.ScaleFactors()
	require.NoError(err)
	require.Equal(units.LST, sf)

	require.Equal(apt.Address{Destination: 0x21, Source: 0x01, Channel: 2}, cfg.Address())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	require := require.New(t)

	t.Setenv("APT_PORT_NAME", "/dev/ttyACM0")
	t.Setenv("APT_STAGE_CHANNEL", "3")
	t.Setenv("APT_TIMEOUTS_MOVE", "5s")

	cfg, err := Load(writeFile(t, sampleYAML), nil)
	require.NoError(err)

	require.Equal("/dev/ttyACM0", cfg.Port.Name)
	require.Equal(uint8(3), cfg.Stage.Channel)
	require.Equal(5*time.Second, cfg.Timeouts.Move)
	require.Equal(57600, cfg.Port.Baud)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	require := require.New(t)

	t.Setenv("APT_STAGE_MODEL", "LST")

	fs := pflag.NewFlagSet("aptctl", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(fs.Parse([]string{"--model", "mst602", "--tcp", "10.0.0.5:4001", "--home-timeout", "45s"}))

	cfg, err := Load(writeFile(t, sampleYAML), fs)
	require.NoError(err)
	require.NoError(cfg.Validate())

	require.Equal("mst602", cfg.Stage.Model)
	require.Equal("10.0.0.5:4001", cfg.Port.TCPAddr)
	require.Equal(45*time.Second, cfg.Timeouts.Home)
	// unset flags do not shadow the file
	require.Equal(57600, cfg.Port.Baud)
	require.Equal(uint8(2), cfg.Stage.Channel)

	sf, err := cfg.ScaleFactors()
	require.NoError(err)
	require.Equal(units.MST, sf)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(writeFile(t, sampleYAML), nil)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no port", func(c *Config) { c.Port.Name = "" }},
		{"zero baud", func(c *Config) { c.Port.Baud = 0 }},
		{"read timeout too long", func(c *Config) { c.Port.ReadTimeout = time.Minute }},
		{"unknown model", func(c *Config) { c.Stage.Model = "KDC" }},
		{"long-form destination", func(c *Config) { c.Stage.Destination = 0x81 }},
		{"zero channel", func(c *Config) { c.Stage.Channel = 0 }},
		{"zero home timeout", func(c *Config) { c.Timeouts.Home = 0 }},
		{"move timeout too long", func(c *Config) { c.Timeouts.Move = 2 * time.Hour }},
		{"negative settle", func(c *Config) { c.Timeouts.Settle = -time.Millisecond }},
		{"poll too short", func(c *Config) { c.Timeouts.Poll = time.Microsecond }},
		{"reply too long", func(c *Config) { c.Timeouts.Reply = time.Minute }},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestConfig_Options(t *testing.T) {
	require := require.New(t)

	cfg, err := Load(writeFile(t, sampleYAML), nil)
	require.NoError(err)

	l := logger.GetLogger()
	require.Len(cfg.PortOptions(l), 3)
	require.Len(cfg.ControllerOptions(l), 4)

	sc, err := transport.NewSessionConfig(cfg.SessionOptions(l)...)
	require.NoError(err)
	require.Equal("/dev/ttyUSB1", sc.Name())
	require.Equal(cfg.Timeouts.Poll, sc.PollInterval())
	require.Equal(cfg.Timeouts.Reply, sc.ReplyTimeout())

	cfg.Port.TCPAddr = "moxa:4001"
	sc, err = transport.NewSessionConfig(cfg.SessionOptions(l)...)
	require.NoError(err)
	require.Equal("moxa:4001", sc.Name())
}

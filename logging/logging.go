package logging

import (
	"errors"

	wapc "github.com/wapc/wapc-guest-tinygo"
	"github.com/wetdirt/wetdirt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const capabilityName = "logging"

// Config controls how the core interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig wetdirt.RuntimeConfig

	// HostCall overrides the waPC host function used for logging operations.
	HostCall func(string, string, string, []byte) ([]byte, error)

	// Level filters entries before they reach the host. Defaults to Info.
	Level zapcore.LevelEnabler
}

// core is a zapcore.Core that hands each encoded entry to the host.
type core struct {
	zapcore.LevelEnabler
	enc      zapcore.Encoder
	runtime  wetdirt.RuntimeConfig
	hostCall func(string, string, string, []byte) ([]byte, error)
}

var _ zapcore.Core = (*core)(nil)

// NewCore returns a zapcore.Core backed by the host logging capability.
func NewCore(cfg Config) zapcore.Core {
	hostCall := cfg.HostCall
	if hostCall == nil {
		hostCall = wapc.HostCall
	}

	level := cfg.Level
	if level == nil {
		level = zapcore.InfoLevel
	}

	// The host stamps time and level itself; only message, name and fields are sent.
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:       "msg",
		NameKey:          "logger",
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	})

	return &core{
		LevelEnabler: level,
		enc:          enc,
		runtime:      cfg.SDKConfig.WithDefaults(),
		hostCall:     hostCall,
	}
}

// New returns a zap logger that writes through the host logging capability.
func New(cfg Config) *zap.Logger {
	return zap.New(NewCore(cfg))
}

func (c *core) With(fields []zapcore.Field) zapcore.Core {
	clone := c.clone()
	for _, f := range fields {
		f.AddTo(clone.enc)
	}
	return clone
}

func (c *core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.enc.EncodeEntry(ent, fields)
	if err != nil {
		return err
	}
	msg := []byte(buf.String())
	buf.Free()

	if _, err := c.hostCall(c.runtime.Namespace, capabilityName, hostFunction(ent.Level), msg); err != nil {
		return errors.Join(wetdirt.ErrHostCall, err)
	}
	return nil
}

func (c *core) Sync() error { return nil }

func (c *core) clone() *core {
	return &core{
		LevelEnabler: c.LevelEnabler,
		enc:          c.enc.Clone(),
		runtime:      c.runtime,
		hostCall:     c.hostCall,
	}
}

// hostFunction maps zap levels onto the host logging functions.
func hostFunction(l zapcore.Level) string {
	switch {
	case l < zapcore.InfoLevel:
		return "Debug"
	case l == zapcore.InfoLevel:
		return "Info"
	case l == zapcore.WarnLevel:
		return "Warn"
	default:
		return "Error"
	}
}

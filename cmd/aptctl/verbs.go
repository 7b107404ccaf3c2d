package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arloliu/go-apt/apt"
)

var errUsage = errors.New("usage")

type verb struct {
	name  string
	usage string
	help  string
	nargs [2]int // min, max
	run   func(ctx context.Context, c *apt.Controller, args []string, w io.Writer) error
}

var verbs = []verb{
	{"info", "info", "print the hardware information block", [2]int{0, 0}, runInfo},
	{"enable", "enable", "enable the stage channel", [2]int{0, 0}, runEnable},
	{"disable", "disable", "disable the stage channel", [2]int{0, 0}, runDisable},
	{"position", "position", "print the position in mm", [2]int{0, 0}, runPosition},
	{"home", "home", "home the stage and wait for completion", [2]int{0, 0}, runHome},
	{"move-abs", "move-abs <mm>", "move to an absolute position", [2]int{1, 1}, runMoveAbs},
	{"move-rel", "move-rel <mm>", "move by a relative distance", [2]int{1, 1}, runMoveRel},
	{"velocity", "velocity", "print the velocity profile", [2]int{0, 0}, runVelocity},
	{"home-params", "home-params", "print the homing parameters", [2]int{0, 0}, runHomeParams},
	{"limits", "limits", "print the limit switch parameters", [2]int{0, 0}, runLimits},
	{"backlash", "backlash", "print the backlash distance", [2]int{0, 0}, runBacklash},
	{"power", "power", "print the phase power", [2]int{0, 0}, runPower},
	{"nt-mode", "nt-mode [state]", "print or set the NanoTrack mode (piezo, latch, track, ...)", [2]int{0, 1}, runNTMode},
	{"diode", "diode", "print the TIA reading", [2]int{0, 0}, runDiode},
	{"feedback", "feedback [source]", "print or set the feedback source (tia, ext1v, ...)", [2]int{0, 1}, runFeedback},
	{"circle", "circle", "print the scan circle parameters and centre", [2]int{0, 0}, runCircle},
	{"lut", "lut", "print the circle diameter lookup table", [2]int{0, 0}, runLUT},
}

func lookupVerb(name string) (verb, bool) {
	for _, v := range verbs {
		if v.name == name {
			return v, true
		}
	}

	return verb{}, false
}

func runVerb(ctx context.Context, c *apt.Controller, name string, args []string, w io.Writer) error {
	v, ok := lookupVerb(name)
	if !ok {
		return fmt.Errorf("%w: unknown verb %q", errUsage, name)
	}
	if len(args) < v.nargs[0] || len(args) > v.nargs[1] {
		return fmt.Errorf("%w: aptctl %s", errUsage, v.usage)
	}

	return v.run(ctx, c, args, w)
}

func runInfo(ctx context.Context, c *apt.Controller, _ []string, w io.Writer) error {
	info, err := c.DeviceInfo(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "serial:   %d\n", info.Serial)
	fmt.Fprintf(w, "model:    %s\n", info.Model)
	fmt.Fprintf(w, "type:     %d\n", info.Type)
	fmt.Fprintf(w, "firmware: %s\n", info.FirmwareVersion)
	fmt.Fprintf(w, "hardware: %d\n", info.HardwareVersion)
	fmt.Fprintf(w, "channels: %d\n", info.Channels)
	if info.Notes != "" {
		fmt.Fprintf(w, "notes:    %s\n", info.Notes)
	}

	return nil
}

func runEnable(ctx context.Context, c *apt.Controller, _ []string, _ io.Writer) error {
	return c.EnableChannel(ctx)
}

func runDisable(ctx context.Context, c *apt.Controller, _ []string, _ io.Writer) error {
	return c.DisableChannel(ctx)
}

func runPosition(ctx context.Context, c *apt.Controller, _ []string, w io.Writer) error {
	pos, err := c.Position(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%.6f mm\n", pos)

	return nil
}

func runHome(ctx context.Context, c *apt.Controller, _ []string, w io.Writer) error {
	if err := c.MoveHome(ctx); err != nil {
		return err
	}
	fmt.Fprintln(w, "homed")

	return nil
}

func runMoveAbs(ctx context.Context, c *apt.Controller, args []string, w io.Writer) error {
	mm, err := parseMM(args[0])
	if err != nil {
		return err
	}

	return moveAndReport(ctx, c, w, c.MoveAbsolute(ctx, mm))
}

func runMoveRel(ctx context.Context, c *apt.Controller, args []string, w io.Writer) error {
	mm, err := parseMM(args[0])
	if err != nil {
		return err
	}

	return moveAndReport(ctx, c, w, c.MoveRelative(ctx, mm))
}

func moveAndReport(ctx context.Context, c *apt.Controller, w io.Writer, moveErr error) error {
	if moveErr != nil {
		return moveErr
	}

	return runPosition(ctx, c, nil, w)
}

func runVelocity(ctx context.Context, c *apt.Controller, _ []string, w io.Writer) error {
	p, err := c.VelocityParams(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "min velocity: %.4f mm/s\n", p.MinVelocity)
	fmt.Fprintf(w, "acceleration: %.4f mm/s²\n", p.Acceleration)
	fmt.Fprintf(w, "max velocity: %.4f mm/s\n", p.MaxVelocity)

	return nil
}

func runHomeParams(ctx context.Context, c *apt.Controller, _ []string, w io.Writer) error {
	p, err := c.HomeParams(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "direction:    %s\n", p.Direction)
	fmt.Fprintf(w, "limit switch: %s\n", p.LimitSwitch)
	fmt.Fprintf(w, "velocity:     %.4f mm/s\n", p.Velocity)
	fmt.Fprintf(w, "offset:       %.4f mm\n", p.Offset)

	return nil
}

func runLimits(ctx context.Context, c *apt.Controller, _ []string, w io.Writer) error {
	p, err := c.LimitSwitchParams(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "cw hard:   %s\n", p.CWHard)
	fmt.Fprintf(w, "ccw hard:  %s\n", p.CCWHard)
	fmt.Fprintf(w, "cw soft:   %.4f mm\n", p.CWSoft)
	fmt.Fprintf(w, "ccw soft:  %.4f mm\n", p.CCWSoft)
	fmt.Fprintf(w, "soft mode: %s\n", p.SoftMode)

	return nil
}

func runBacklash(ctx context.Context, c *apt.Controller, _ []string, w io.Writer) error {
	mm, err := c.Backlash(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%.6f mm\n", mm)

	return nil
}

func runPower(ctx context.Context, c *apt.Controller, _ []string, w io.Writer) error {
	p, err := c.PowerParams(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "rest: %d%%\nmove: %d%%\n", p.Rest, p.Move)

	return nil
}

func runNTMode(ctx context.Context, c *apt.Controller, args []string, w io.Writer) error {
	if len(args) == 1 {
		mode, err := parseSetMode(args[0])
		if err != nil {
			return err
		}
		if err := c.SetNanoTrackMode(ctx, mode); err != nil {
			return err
		}
	}

	st, err := c.NanoTrackMode(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "state: %s\nmode:  %s\n", st.State, st.Mode)

	return nil
}

func runDiode(ctx context.Context, c *apt.Controller, _ []string, w io.Writer) error {
	r, err := c.DiodeReading(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "absolute:   %g\n", r.Absolute)
	fmt.Fprintf(w, "relative:   %.4f (%d)\n", r.Relative, r.RelativeRaw)
	fmt.Fprintf(w, "range:      %d\n", r.Range)
	fmt.Fprintf(w, "under/over: %d\n", r.UnderOver)

	return nil
}

func runFeedback(ctx context.Context, c *apt.Controller, args []string, w io.Writer) error {
	if len(args) == 1 {
		src, err := parseFeedbackSource(args[0])
		if err != nil {
			return err
		}
		if err := c.SetFeedbackSource(ctx, src); err != nil {
			return err
		}
	}

	src, err := c.FeedbackSource(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, src)

	return nil
}

func runCircle(ctx context.Context, c *apt.Controller, _ []string, w io.Writer) error {
	p, err := c.CircleParams(ctx)
	if err != nil {
		return err
	}
	centre, err := c.CircleCentre(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "diameter mode: %s\n", p.DiameterMode)
	fmt.Fprintf(w, "diameter:      %d [%d, %d]\n", p.Diameter, p.MinDiameter, p.MaxDiameter)
	fmt.Fprintf(w, "frequency:     %.3f Hz\n", p.Frequency)
	fmt.Fprintf(w, "adjust type:   %d\n", p.AdjustType)
	fmt.Fprintf(w, "centre:        %d, %d\n", centre.Position.A, centre.Position.B)
	fmt.Fprintf(w, "reading:       %.4f\n", centre.Relative)

	return nil
}

func runLUT(ctx context.Context, c *apt.Controller, _ []string, w io.Writer) error {
	t, err := c.DiameterTable(ctx)
	if err != nil {
		return err
	}

	for i, e := range t.Entries {
		fmt.Fprintf(w, "%2d: %d\n", i+1, e)
	}

	return nil
}

func parseMM(s string) (float64, error) {
	mm, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid distance %q", errUsage, s)
	}

	return mm, nil
}

func parseSetMode(s string) (apt.SetMode, error) {
	for m := apt.SetPiezo; m <= apt.SetTrackVertical; m++ {
		if strings.EqualFold(m.String(), s) {
			return m, nil
		}
	}

	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil || !apt.SetMode(n).Valid() {
		return 0, fmt.Errorf("%w: unknown NanoTrack mode %q", errUsage, s)
	}

	return apt.SetMode(n), nil
}

func parseFeedbackSource(s string) (apt.FeedbackSource, error) {
	for f := apt.FeedbackTIA; f <= apt.FeedbackExt10V; f++ {
		if strings.EqualFold(f.String(), s) {
			return f, nil
		}
	}

	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil || !apt.FeedbackSource(n).Valid() {
		return 0, fmt.Errorf("%w: unknown feedback source %q", errUsage, s)
	}

	return apt.FeedbackSource(n), nil
}

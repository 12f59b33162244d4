// Package cli contains the chassisctl command, which drives a simulated differential chassis
// and prints the motor commands each operation produced.
package cli

import (
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"go.viam.com/diffdrive/components/base/differential"
	"go.viam.com/diffdrive/components/motor/fake"
)

const (
	// Flags.
	generalFlagConfig        = "config"
	generalFlagDebug         = "debug"
	generalFlagLogLevel      = "log-level"
	generalFlagMaxRPM        = "max-rpm"
	generalFlagWheelDiameter = "wheel-diameter"

	moveFlagDistance  = "distance"
	moveFlagSpeed     = "speed"
	moveFlagCoast     = "coast"
	moveFlagDirection = "direction"
	moveFlagDuration  = "duration"
	rampFlagAccel     = "accel"
	rampFlagDecel     = "decel"
)

func speedFlag() cli.Flag {
	return &cli.Float64Flag{
		Name:     moveFlagSpeed,
		Aliases:  []string{"s"},
		Usage:    "motor power in percent, negative to reverse",
		Required: true,
	}
}

// NewApp returns a new app with the chassisctl commands, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	return &cli.App{
		Name:            "chassisctl",
		Usage:           "drive a simulated differential chassis",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    generalFlagConfig,
				Aliases: []string{"c"},
				Usage:   "load chassis configuration from `FILE` (json or yaml)",
			},
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  generalFlagLogLevel,
				Value: "info",
				Usage: "minimum log level: debug, info, warn or error",
			},
			&cli.Float64Flag{
				Name:  generalFlagMaxRPM,
				Value: fake.DefaultMaxRPM,
				Usage: "no-load speed of the simulated motors at full power",
			},
			&cli.Float64Flag{
				Name:  generalFlagWheelDiameter,
				Usage: "wheel diameter in mm, overrides the config file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "steer",
				Usage: "run both motors open loop with a turn bias",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:    moveFlagDirection,
						Aliases: []string{"d"},
						Usage:   "turn bias in percent, -100 to 100",
					},
					speedFlag(),
					&cli.DurationFlag{
						Name:  moveFlagDuration,
						Value: defaultSteerDuration,
						Usage: "how long to let the chassis run before reporting",
					},
				},
				Action: SteerAction,
			},
			{
				Name:  "stop",
				Usage: "stop both motors",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  moveFlagCoast,
						Usage: "coast instead of holding position",
					},
				},
				Action: StopAction,
			},
			{
				Name:  "move",
				Usage: "travel a distance at a fixed power",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:     moveFlagDistance,
						Usage:    "distance in mm, negative to reverse",
						Required: true,
					},
					speedFlag(),
					&cli.BoolFlag{
						Name:  moveFlagCoast,
						Usage: "coast at the end instead of holding position",
					},
				},
				Action: MoveAction,
			},
			{
				Name:  "ramp",
				Usage: "travel a distance with acceleration and deceleration",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:     moveFlagDistance,
						Usage:    "total distance in mm",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  rampFlagAccel,
						Usage: "acceleration distance in mm",
					},
					&cli.Float64Flag{
						Name:  rampFlagDecel,
						Usage: "deceleration distance in mm",
					},
					speedFlag(),
				},
				Action: RampAction,
			},
			{
				Name:  "roll",
				Usage: "roll a distance and leave the motors running",
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:     moveFlagDistance,
						Usage:    "distance in mm",
						Required: true,
					},
					speedFlag(),
				},
				Action: RollAction,
			},
			{
				Name:      "after",
				Usage:     "run an after-motion action",
				ArgsUsage: "<" + strings.Join(afterMotionNames(), "|") + ">",
				Flags:     []cli.Flag{speedFlag()},
				Action:    AfterMotionAction,
			},
		},
	}
}

func afterMotionNames() []string {
	return lo.Map(differential.AllAfterMotions(), func(a differential.AfterMotion, _ int) string {
		return a.String()
	})
}

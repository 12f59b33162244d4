package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"go.viam.com/diffdrive/components/base/differential"
	"go.viam.com/diffdrive/components/motor/fake"
)

// printReport prints every command the simulated motors received, then where each wheel ended up.
func printReport(ctx context.Context, w io.Writer, ch *chassis) error {
	commands := table.NewWriter()
	commands.AppendHeader(table.Row{"#", "Motor", "Command", "Power %", "Value", "Unit", "Accel", "Decel", "Brake"})
	var n int
	for _, m := range []*fake.Motor{ch.left, ch.right} {
		for _, cmd := range m.Commands() {
			n++
			row := table.Row{n, cmd.Motor, cmd.Kind, fmt.Sprintf("%.2f", cmd.PowerPct), "", "", "", "", cmd.Brake}
			switch cmd.Kind {
			case fake.KindRunFor:
				row[4], row[5] = fmt.Sprintf("%.2f", cmd.Value), cmd.Unit.String()
			case fake.KindRamp:
				row[4], row[5] = fmt.Sprintf("%.2f", cmd.Value), cmd.Unit.String()
				row[6], row[7] = fmt.Sprintf("%.2f", cmd.Accel), fmt.Sprintf("%.2f", cmd.Decel)
			case fake.KindStop:
				row[3] = ""
			}
			commands.AppendRow(row)
		}
	}
	if _, err := fmt.Fprintln(w, commands.Render()); err != nil {
		return err
	}

	wheelDiameter := ch.ctrl.Config().WheelDiameterMM
	wheels := table.NewWriter()
	wheels.AppendHeader(table.Row{"Motor", "Angle (deg)", "Distance (mm)", "Power %"})
	for _, m := range []*fake.Motor{ch.left, ch.right} {
		angle, err := m.Angle(ctx)
		if err != nil {
			return err
		}
		wheels.AppendRow(table.Row{
			m.Name(),
			fmt.Sprintf("%.2f", angle),
			fmt.Sprintf("%.2f", differential.FromDegrees(angle, wheelDiameter)),
			fmt.Sprintf("%.2f", m.PowerPct()),
		})
	}
	_, err := fmt.Fprintln(w, wheels.Render())
	return err
}

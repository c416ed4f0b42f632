package batch

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// CommandProducer runs an external program once per unit. The unit is
// passed through RECEIPT_* environment variables and the program must
// write its document to RECEIPT_OUTPUT.
type CommandProducer struct {
	Path string
	Args []string
	Env  []string // appended to the current environment
}

// Produce runs the command for unit and checks that dest was written.
func (c CommandProducer) Produce(ctx context.Context, unit Unit, dest string) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Env = append(append(os.Environ(), c.Env...), UnitEnv(unit, dest)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", c.Path, err, msg)
		}
		return fmt.Errorf("%s: %w", c.Path, err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("%s produced no document: %w", c.Path, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s produced an empty document at %s", c.Path, dest)
	}
	return nil
}

// UnitEnv renders unit as KEY=value pairs.
func UnitEnv(unit Unit, dest string) []string {
	return []string{
		"RECEIPT_SEQUENCE=" + strconv.Itoa(unit.Sequence),
		"RECEIPT_AMOUNT=" + unit.Amount.String(),
		"RECEIPT_DATE=" + unit.Date.String(),
		"RECEIPT_TIME=" + unit.Time.String(),
		"RECEIPT_STATION=" + unit.StationName,
		"RECEIPT_FUEL_RATE=" + unit.FuelRate.String(),
		"RECEIPT_VOLUME=" + unit.Volume.StringFixed(2),
		"RECEIPT_TEMPLATE=" + strconv.Itoa(unit.Template),
		"RECEIPT_OUTPUT=" + dest,
	}
}

// Package agentcli is the cobra command tree for the neio-hogpad binary,
// shaped after the teacher's pkg/agent/agentcli.NewRootCmd: a persistent
// --config flag, a PersistentPreRunE that builds the Agent once, and one
// subcommand per operation.
package agentcli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/neuroplastio/neio-hogpad/hidapi/hiddesc"
	"github.com/neuroplastio/neio-hogpad/internal/inputsvc"
	"github.com/neuroplastio/neio-hogpad/pkg/agent"
)

func Main(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	dir, err := os.UserConfigDir()
	if err != nil {
		return err
	}
	cmd := NewRootCmd(filepath.Join(dir, "neio-hogpad", "config.yml"))
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd.ExecuteContext(ctx)
}

type agentProvider func() *agent.Agent

// NewRootCmd builds the command tree. defaultConfigPath seeds the
// --config flag; the agent itself is constructed lazily in
// PersistentPreRunE so flag parsing always happens first.
func NewRootCmd(defaultConfigPath string) *cobra.Command {
	configPath := defaultConfigPath
	var mode, deviceName, inputDevice, gadgetName string
	var reportRateHz int
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "neio-hogpad",
		Short: "neio HID-over-GATT / USB gamepad-keyboard-mouse bridge",
		Long:  `neio-hogpad reads one evdev gamepad and presents it to a host as a composite gamepad+keyboard+mouse HID device, over BLE HID-over-GATT or a USB gadget.`,
	}
	var a *agent.Agent
	provider := func() *agent.Agent { return a }

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", configPath, "path to config.yml")
	flags.StringVar(&mode, "mode", "", "transport mode: ble or usb (overrides config.yml)")
	flags.StringVar(&deviceName, "device-name", "", "advertised BLE device name (overrides config.yml)")
	flags.IntVar(&reportRateHz, "rate", 0, "report transmit rate in hz (overrides config.yml)")
	flags.StringVar(&inputDevice, "input-device", "", "evdev path or \"auto\" (overrides config.yml)")
	flags.StringVar(&gadgetName, "gadget-name", "", "configfs gadget directory name (overrides config.yml)")
	flags.BoolVar(&verbose, "verbose", false, "enable debug logging")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var overrides agent.Overrides
		if flags.Changed("mode") {
			overrides.Mode = &mode
		}
		if flags.Changed("device-name") {
			overrides.DeviceName = &deviceName
		}
		if flags.Changed("rate") {
			overrides.ReportRateHz = &reportRateHz
		}
		if flags.Changed("input-device") {
			overrides.InputDevice = &inputDevice
		}
		if flags.Changed("gadget-name") {
			overrides.GadgetName = &gadgetName
		}
		if flags.Changed("verbose") {
			overrides.Verbose = &verbose
		}
		var err error
		a, err = agent.NewAgent(configPath, overrides)
		return err
	}
	rootCmd.AddCommand(NewRun(provider))
	rootCmd.AddCommand(NewListDevices())
	rootCmd.AddCommand(NewGetReportDescriptor(provider))
	return rootCmd
}

func NewRun(provider agentProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the agent until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return provider().Run(cmd.Context())
		},
	}
}

// NewListDevices lists every evdev node under /dev/input that looks like a
// gamepad, for picking an inputDevice value in config.yml. It needs no
// Agent: inputsvc.ListCandidates opens devices directly.
func NewListDevices() *cobra.Command {
	return &cobra.Command{
		Use:   "list-devices",
		Short: "List gamepad-capable evdev devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := inputsvc.ListCandidates()
			if err != nil {
				return err
			}
			jsonB, err := json.MarshalIndent(candidates, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonB))
			return nil
		},
	}
}

// NewGetReportDescriptor prints the fixed three-collection HID report
// descriptor this module always advertises, either as decoded JSON or as
// the raw encoded bytes a host's HID driver would actually parse.
func NewGetReportDescriptor(provider agentProvider) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "get-report-descriptor",
		Short: "Print the HID report descriptor this agent advertises",
		RunE: func(cmd *cobra.Command, args []string) error {
			descBytes, err := provider().Codec().DescriptorBytes()
			if err != nil {
				return err
			}
			if raw {
				_, err := cmd.OutOrStdout().Write(descBytes)
				return err
			}
			desc := hiddesc.Combined()
			jsonB, err := json.MarshalIndent(desc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonB))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the raw encoded descriptor bytes")
	return cmd
}

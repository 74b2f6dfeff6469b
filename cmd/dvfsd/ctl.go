package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"soc_dvfs/capapi"
	"soc_dvfs/config"
)

var ctlCmd = &cobra.Command{
	Use:   "ctl <command> [value]",
	Short: "Read or write a control of a running daemon",
	Long: `Commands: core_cap_state, core_cap_level, cbus_cap_state, cbus_cap_level,
gpu_voltages, disable_cpu, disable_core, rails, domains, version.
Without a value the current setting is printed.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v, configPath)
		if err != nil {
			return err
		}
		c := capapi.NewClient(cfg.Listen)
		defer c.Close()

		var param interface{}
		if len(args) == 2 {
			param = ctlParam(args[1])
		}
		rep, err := c.Call(args[0], param)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(rep.Result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

// ctlParam sends numbers as numbers and everything else as a string.
func ctlParam(s string) interface{} {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDriversCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List the configured browser drivers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tBACKEND\tBROWSER\tHEADLESS\tENDPOINT")
			for _, d := range cfg.Drivers() {
				endpoint := d.RemoteURL
				if endpoint == "" {
					endpoint = "local"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Name, d.Backend, d.BrowserName(), strconv.FormatBool(d.Headless), endpoint)
			}
			return w.Flush()
		},
	}
}

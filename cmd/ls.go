package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ampynjord/starvis-sub003/pkg/archive"
)

var lsLong bool

var lsCmd = &cobra.Command{
	Use:   "ls <archive> [prefix]",
	Short: "List archive entries, optionally under a path prefix",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := archive.Open(args[0])
		if err != nil {
			log.Errorf("error opening archive %s, err: %v", args[0], err)
			return err
		}
		defer a.Close()

		prefix := ""
		if len(args) == 2 {
			prefix = args[1]
		}

		if !lsLong {
			for e := range a.Index().List(prefix) {
				fmt.Println(e.Path)
			}
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for e := range a.Index().List(prefix) {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				methodName(e.Method),
				humanize.IBytes(e.CompressedSize),
				humanize.IBytes(e.UncompressedSize),
				e.Path)
		}
		return w.Flush()
	},
}

func methodName(m uint16) string {
	switch m {
	case archive.Store:
		return "store"
	case archive.Deflate:
		return "deflate"
	default:
		return fmt.Sprintf("method(%d)", m)
	}
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "show compression method and sizes")
}

package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ampynjord/starvis-sub003/pkg/archive"
)

var findSuffix bool

var findCmd = &cobra.Command{
	Use:   "find <archive> <pattern>",
	Short: "Find entries whose path contains a substring (case-insensitive)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := archive.Open(args[0])
		if err != nil {
			log.Errorf("error opening archive %s, err: %v", args[0], err)
			return err
		}
		defer a.Close()

		matches := a.Index().Find(args[1])
		if findSuffix {
			matches = a.Index().ListSuffix(args[1])
		}
		n := 0
		for e := range matches {
			fmt.Println(e.Path)
			n++
		}
		log.Debugf("%d entries matched %q", n, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().BoolVarP(&findSuffix, "suffix", "s", false, "match the pattern as an exact path suffix instead")
}

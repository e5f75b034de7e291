package cmd

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ampynjord/starvis-sub003/pkg/archive"
	"github.com/ampynjord/starvis-sub003/pkg/catalog"
)

var (
	extractPaths  []string
	extractOut    []string
	extractAll    bool
	extractPrefix string
	extractDir    string
	extractVerify bool
	extractJobs   int
)

var extractCmd = &cobra.Command{
	Use:   "extract <archive>",
	Short: "Extract one or more entries from a data archive",
	Long: `Extracts entries by exact path, or every entry under a prefix with --all.
Single extractions go to stdout unless -o is given; bulk extractions mirror
the archive layout under --dir.

	ex:
	starvis extract Data.p4k -f a/one.xml
	starvis extract Data.p4k -f a/one.xml -o one.xml -f a/two.xml -o two.xml
	starvis extract Data.p4k --all --prefix a/ --dir ./out`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !extractAll && len(extractPaths) == 0 {
			cmd.Usage()
			os.Exit(1)
		}
		if len(extractOut) > 0 && len(extractOut) != len(extractPaths) {
			log.Error("must specify one output file for every -f path")
			cmd.Usage()
			os.Exit(1)
		}

		a, err := archive.Open(args[0])
		if err != nil {
			log.Errorf("error opening archive %s, err: %v", args[0], err)
			return err
		}
		defer a.Close()

		if extractAll {
			return extractEverything(cmd, a)
		}
		return extractListed(a)
	},
}

func extractListed(a *archive.Archive) error {
	var opts []archive.ExtractOption
	if extractVerify {
		opts = append(opts, archive.WithCRC32Check())
	}
	for i, p := range extractPaths {
		e, ok := a.Index().Lookup(p)
		if !ok {
			return fmt.Errorf("entry %q not found in archive", p)
		}
		data, err := a.Extract(e, opts...)
		if err != nil {
			log.Errorf("error extracting %q, err: %v", p, err)
			return err
		}
		if len(extractOut) == 0 {
			os.Stdout.Write(data)
			continue
		}
		if err := os.WriteFile(extractOut[i], data, 0o644); err != nil {
			log.Errorf("error writing file (name: %s), err: %v", extractOut[i], err)
			return err
		}
	}
	return nil
}

func extractEverything(cmd *cobra.Command, a *archive.Archive) error {
	if extractDir == "" {
		log.Error("--all requires --dir")
		cmd.Usage()
		os.Exit(1)
	}

	var total int
	for range a.Index().List(extractPrefix) {
		total++
	}
	bar := progressbar.Default(int64(total), "extracting")

	s := &catalog.Syncer{
		Archive: a,
		Workers: extractJobs,
		OnEntry: func(archive.Entry) { bar.Add(1) },
	}
	n, err := s.Sync(cmd.Context(), extractPrefix, catalog.DirSink{Root: extractDir})
	bar.Finish()
	if err != nil {
		log.Errorf("error syncing archive (extracted %d of %d), err: %v", n, total, err)
		return err
	}
	fmt.Printf("extracted %d entries to %s\n", n, extractDir)
	return nil
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringSliceVarP(&extractPaths, "file", "f", []string{}, "exact archive path(s) of the entries to extract")
	extractCmd.Flags().StringSliceVarP(&extractOut, "out", "o", []string{}, "name(s) of the file(s) to write output to")
	extractCmd.Flags().BoolVar(&extractAll, "all", false, "extract every entry matching --prefix")
	extractCmd.Flags().StringVar(&extractPrefix, "prefix", "", "path prefix to match with --all")
	extractCmd.Flags().StringVar(&extractDir, "dir", "", "output directory for --all")
	extractCmd.Flags().BoolVar(&extractVerify, "verify", false, "verify CRC32 of extracted entries")
	extractCmd.Flags().IntVarP(&extractJobs, "jobs", "j", 0, "concurrent extractions with --all (default GOMAXPROCS)")
}

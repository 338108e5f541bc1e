// Command vsswalk reads a Visual SourceSafe repository and replays its
// reconstructed history into a Perforce journal, suitable for loading into
// an empty p4d instance via `p4d -r <root> -jr <journal>`.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alegrigoriev/py-vss/config"
	"github.com/alegrigoriev/py-vss/journal"
	"github.com/alegrigoriev/py-vss/node"
	"github.com/alegrigoriev/py-vss/vsschangeset"
	"github.com/alegrigoriev/py-vss/vssdb"
	"github.com/alegrigoriev/py-vss/vsstree"

	"github.com/alitto/pond"
	"github.com/perforce/p4prometheus/version"
	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	var (
		configFile = kingpin.Flag(
			"config",
			"Config file for vsswalk.",
		).Default("vsswalk.yaml").Short('c').String()
		vssRoot = kingpin.Arg(
			"vssroot",
			"Path to the VSS database (the directory containing srcsafe.ini).",
		).Required().String()
		importDepot = kingpin.Flag(
			"import.depot",
			"Depot into which to import (overrides config).",
		).Default(config.DefaultDepot).Short('d').String()
		importPath = kingpin.Flag(
			"import.path",
			"(Optional) path component under import.depot (overrides config).",
		).String()
		outputJournal = kingpin.Flag(
			"journal",
			"P4D journal file to write.",
		).Default("jnl.0").String()
		dryrun = kingpin.Flag(
			"dryrun",
			"Walk and validate the repository without writing a journal.",
		).Bool()
		maxChangesets = kingpin.Flag(
			"max.changesets",
			"Max number of changesets to replay (0 = no limit).",
		).Short('m').Int()
		debug = kingpin.Flag(
			"debug",
			"Enable debug-level logging.",
		).Bool()
		cpuProfile = kingpin.Flag(
			"cpuprofile",
			"Write a CPU profile to ./cpu.pprof.",
		).Bool()
		memProfile = kingpin.Flag(
			"memprofile",
			"Write a memory profile to ./mem.pprof.",
		).Bool()
	)
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate).Version(version.Print("vsswalk")).Author("")
	kingpin.CommandLine.Help = "Replays a Visual SourceSafe repository's history into a Perforce journal.\n"
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	logger := logrus.New()
	logger.Level = logrus.InfoLevel
	if *debug {
		logger.Level = logrus.DebugLevel
	}

	switch {
	case *cpuProfile:
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case *memProfile:
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	}

	cfg, err := config.LoadConfigFile(*configFile)
	if err != nil {
		logger.Warnf("no config file loaded (%v); using defaults", err)
		cfg, _ = config.Unmarshal(nil)
	}
	if *importDepot != config.DefaultDepot {
		cfg.ImportDepot = *importDepot
	}
	if *importPath != "" {
		cfg.ImportPath = *importPath
	}

	startTime := time.Now()
	logger.Infof("%v", version.Print("vsswalk"))
	logger.Infof("starting %s, vssroot: %s", startTime, *vssRoot)

	if err := run(logger, cfg, *vssRoot, *outputJournal, *dryrun, *maxChangesets); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	logger.Infof("done in %s", time.Since(startTime))
}

func run(logger *logrus.Logger, cfg *config.Config, vssRoot, outputJournal string, dryrun bool, maxChangesets int) error {
	db, err := vssdb.Open(vssRoot, nil, logger)
	if err != nil {
		return fmt.Errorf("opening VSS database: %w", err)
	}

	root, err := vsstree.Root(db)
	if err != nil {
		return fmt.Errorf("walking project tree: %w", err)
	}

	changesets := vsschangeset.Build(db)
	if maxChangesets > 0 && len(changesets) > maxChangesets {
		logger.Warnf("truncating %d changesets to %d (--max.changesets)", len(changesets), maxChangesets)
		changesets = changesets[:maxChangesets]
	}
	logger.Infof("reconstructed %d changesets", len(changesets))

	if warnings := preflightCollisions(changesets); len(warnings) > 0 {
		for _, w := range warnings {
			logger.Warn(w)
		}
	}

	verifyChecksums(logger, root)

	if dryrun {
		logger.Info("dryrun: skipping journal write")
		return nil
	}

	f, err := os.Create(outputJournal)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputJournal, err)
	}
	defer f.Close()

	j := &journal.Journal{}
	j.SetWriter(f)
	j.WriteHeader()

	h := journal.NewHandler(j, cfg, logger)
	for _, cs := range changesets {
		h.BeginChangeset(int(cs.Timestamp), cs.Author, cs.Comment)
		if err := vsschangeset.Replay(h, []vsschangeset.Changeset{cs}); err != nil {
			return fmt.Errorf("replaying changeset at %d: %w", cs.Timestamp, err)
		}
	}
	return nil
}

// preflightCollisions flags paths that would collide on a case-insensitive
// destination filesystem (VSS names are themselves case-insensitive, so
// two distinct VSS items can legally share a path that differs only by
// case) before any journal record is written.
func preflightCollisions(changesets []vsschangeset.Changeset) []string {
	tree := node.NewNode("", true)
	var warnings []string
	for _, cs := range changesets {
		for _, a := range cs.Actions {
			switch a.Kind {
			case vsschangeset.CreateFile:
				if tree.FindFile(a.Path) {
					warnings = append(warnings, fmt.Sprintf("case-insensitive path collision: %s", a.Path))
					continue
				}
				tree.AddFile(a.Path)
			case vsschangeset.DeleteFile:
				tree.DeleteFile(a.Path)
			case vsschangeset.RenameFile:
				tree.DeleteFile(a.OldPath)
				tree.AddFile(a.Path)
			}
		}
	}
	return warnings
}

// verifyChecksums cross-checks every reachable File's reconstructed latest
// payload against its on-disk DataCRC, fanning the work out across a
// worker pool since it's pure CPU-bound verification independent per file.
func verifyChecksums(logger *logrus.Logger, root *vsstree.Project) {
	pool := pond.New(4, 1024)
	defer pool.StopAndWait()

	var walk func(p *vsstree.Project)
	walk = func(p *vsstree.Project) {
		for _, it := range p.Items {
			switch c := it.(type) {
			case *vsstree.Project:
				walk(c)
			case *vsstree.File:
				if c.Orphaned() || c.ItemFile == nil {
					continue
				}
				f := c
				pool.Submit(func() {
					want := f.ItemFile.FileItemHeader.DataCRC
					if want == 0 {
						return
					}
					got := crc32Of(f.Data())
					if got != want {
						logger.Warnf("%s: data CRC mismatch: have %08x, want %08x", f.FullName().Name, got, want)
					}
				})
			}
		}
	}
	walk(root)
}

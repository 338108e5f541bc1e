// Command vssgraph renders the live (present-state) project tree of a
// Visual SourceSafe repository as a Graphviz graph: one node per Project
// or File, doubled edges wherever a physical File is shared under more
// than one parent Project.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alegrigoriev/py-vss/vssdb"
	"github.com/alegrigoriev/py-vss/vsstree"

	"github.com/emicklei/dot"
	"github.com/goccy/go-graphviz"
	"github.com/perforce/p4prometheus/version"
	"github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"
)

func main() {
	var (
		vssRoot = kingpin.Arg(
			"vssroot",
			"Path to the VSS database (the directory containing srcsafe.ini).",
		).Required().String()
		dotFile = kingpin.Flag(
			"dotfile",
			"Graphviz DOT file to write.",
		).Default("vss.dot").String()
		pngFile = kingpin.Flag(
			"pngfile",
			"If set, also rasterize the graph to this PNG file.",
		).String()
		debug = kingpin.Flag("debug", "Enable debug-level logging.").Bool()
	)
	kingpin.UsageTemplate(kingpin.CompactUsageTemplate).Version(version.Print("vssgraph")).Author("")
	kingpin.CommandLine.Help = "Renders a Visual SourceSafe repository's live project tree as a graph.\n"
	kingpin.HelpFlag.Short('h')
	kingpin.Parse()

	logger := logrus.New()
	logger.Level = logrus.InfoLevel
	if *debug {
		logger.Level = logrus.DebugLevel
	}

	if err := run(logger, *vssRoot, *dotFile, *pngFile); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(logger *logrus.Logger, vssRoot, dotFile, pngFile string) error {
	db, err := vssdb.Open(vssRoot, nil, logger)
	if err != nil {
		return fmt.Errorf("opening VSS database: %w", err)
	}
	root, err := vsstree.Root(db)
	if err != nil {
		return fmt.Errorf("walking project tree: %w", err)
	}

	g := dot.NewGraph(dot.Directed)
	g.Attr("rankdir", "LR")

	seen := make(map[string]dot.Node) // physical name -> already-created node
	renderProject(g, root, seen)

	if err := os.WriteFile(dotFile, []byte(g.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", dotFile, err)
	}
	logger.Infof("wrote %s", dotFile)

	if pngFile == "" {
		return nil
	}
	gv := graphviz.New()
	defer gv.Close()
	graph, err := graphviz.ParseBytes([]byte(g.String()))
	if err != nil {
		return fmt.Errorf("parsing generated DOT: %w", err)
	}
	defer graph.Close()
	if err := gv.RenderFilename(context.Background(), graph, graphviz.PNG, pngFile); err != nil {
		return fmt.Errorf("rendering %s: %w", pngFile, err)
	}
	logger.Infof("wrote %s", pngFile)
	return nil
}

func renderProject(g *dot.Graph, p *vsstree.Project, seen map[string]dot.Node) dot.Node {
	if n, ok := seen[p.FullName().PhysicalName]; ok {
		return n
	}
	n := g.Node(p.FullName().PhysicalName).Label(p.FullName().Name).Box()
	seen[p.FullName().PhysicalName] = n

	for _, it := range p.Items {
		switch c := it.(type) {
		case *vsstree.Project:
			child := renderProject(g, c, seen)
			g.Edge(n, child)
		case *vsstree.File:
			child := renderFile(g, c, seen)
			edge := g.Edge(n, child)
			if c.ItemFile != nil && c.ItemFile.IsShared() {
				edge.Attr("style", "bold").Attr("peripheries", "2")
			}
		}
	}
	return n
}

func renderFile(g *dot.Graph, f *vsstree.File, seen map[string]dot.Node) dot.Node {
	if n, ok := seen[f.FullName().PhysicalName]; ok {
		return n
	}
	n := g.Node(f.FullName().PhysicalName).Label(f.FullName().Name)
	seen[f.FullName().PhysicalName] = n
	return n
}

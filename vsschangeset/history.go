package vsschangeset

import (
	"regexp"
	"strings"

	"github.com/alegrigoriev/py-vss/vssdb"
	"github.com/alegrigoriev/py-vss/vssrevision"
	"github.com/alegrigoriev/py-vss/vsshandler"
)

// Changeset is one batch of Actions sharing a (timestamp, author) key — the
// replay unit a destination groups into a single commit/changelist.
type Changeset struct {
	Timestamp uint32
	Author    string
	Comment   string
	Actions   []Action
}

var newlineRun = regexp.MustCompile(`\n{3,}`)

// normalizeComment canonicalizes VSS's CR/CRLF line endings to LF,
// collapses runs of three or more newlines down to two (a single blank
// line) and trims leading and trailing whitespace, matching the whitespace
// a destination's own commit-message convention expects.
func normalizeComment(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = newlineRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Build opens db's repository from the well-known root and replays its
// full reconstructed history into chronologically ordered Changesets, each
// carrying the Actions a vsshandler.Handler should apply for that
// (timestamp, author) batch. The walk runs backward over a fresh mutable
// cursor tree (cursor.go), independent of any *vsstree.Project the caller
// may also have built for other purposes (e.g. checksum verification).
func Build(db *vssdb.Database) []Changeset {
	root := buildDirCursor(db, vssrevision.FullName{
		IsProject:    true,
		Name:         vssdb.RootProjectName,
		IndexName:    vssdb.RootProjectName,
		PhysicalName: vssdb.RootProjectFile,
	}, false)
	return drainChangesets(root)
}

func buildChangeset(group []Action) Changeset {
	cs := Changeset{
		Timestamp: group[0].Source.Timestamp,
		Author:    group[0].Source.Author,
		Actions:   append([]Action{}, group...),
	}

	seen := make(map[string]bool)
	var comments []string
	for _, a := range group {
		for _, c := range [2]string{a.Source.Comment, a.Source.LabelComment} {
			if c == "" {
				continue
			}
			c = normalizeComment(c)
			if c != "" && !seen[c] {
				seen[c] = true
				comments = append(comments, c)
			}
		}
	}
	cs.Comment = strings.Join(comments, "\n\n")
	return cs
}

// Replay drives handler through every Action of every Changeset in order.
func Replay(handler vsshandler.Handler, changesets []Changeset) error {
	for _, cs := range changesets {
		for _, a := range cs.Actions {
			if err := applyAction(handler, a); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyAction(h vsshandler.Handler, a Action) error {
	switch a.Kind {
	case CreateFile:
		return h.CreateFile(a.Path, a.Data, a.CopyFrom)
	case ChangeFile:
		return h.ChangeFile(a.Path, a.Data)
	case DeleteFile:
		return h.DeleteFile(a.Path)
	case RenameFile:
		return h.RenameFile(a.OldPath, a.Path)
	case CreateDirectory:
		return h.CreateDirectory(a.Path)
	case DeleteDirectory:
		return h.DeleteDirectory(a.Path)
	case RenameDirectory:
		return h.RenameDirectory(a.OldPath, a.Path)
	case CreateFileLabel:
		return h.CreateFileLabel(a.Path, a.Label)
	case CreateDirLabel:
		return h.CreateDirLabel(a.Path, a.Label)
	}
	return nil
}

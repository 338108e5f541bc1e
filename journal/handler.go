package journal

import (
	"sort"
	"strings"

	"github.com/alegrigoriev/py-vss/config"
	"github.com/h2non/filetype"
	"github.com/sirupsen/logrus"
)

// Handler adapts a Journal into a vsshandler.Handler (not imported here to
// keep this package below it in the dependency graph; cmd/vsswalk is the
// only place both meet). Every emitted action belongs to the changeset the
// caller most recently opened with BeginChangeset.
type Handler struct {
	j   *Journal
	cfg *config.Config
	log *logrus.Logger

	depotPath string // e.g. "//import"
	changeNo  int
	revision  map[string]int  // depot path -> last written revision number
	live      map[string]bool // depot path -> currently live (exists at the destination)
	curChange int
	curTime   int
}

// NewHandler returns a Handler writing to j, rooted at
// //cfg.ImportDepot/cfg.ImportPath.
func NewHandler(j *Journal, cfg *config.Config, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	depot := "//" + strings.Trim(cfg.ImportDepot, "/")
	if cfg.ImportPath != "" {
		depot += "/" + strings.Trim(cfg.ImportPath, "/")
	}
	return &Handler{
		j: j, cfg: cfg, log: log, depotPath: depot,
		revision: make(map[string]int),
		live:     make(map[string]bool),
	}
}

// BeginChangeset opens a new changelist, writing its description record.
// Every subsequent Create/Change/Delete/Rename call until the next
// BeginChangeset belongs to this changelist.
func (h *Handler) BeginChangeset(timestamp int, author, comment string) {
	h.changeNo++
	h.curChange = h.changeNo
	h.curTime = timestamp
	if comment == "" {
		comment = "(no comment)"
	}
	h.j.WriteChange(h.curChange, comment, h.curTime)
}

// depotFile converts a vsstree path ("$/Project/File.txt") to a depot path
// rooted at h.depotPath, unless rel matches one of cfg.ReBranchMappings, in
// which case that mapping's prefix replaces ImportPath for this file (first
// match wins).
func (h *Handler) depotFile(vssPath string) string {
	rel := strings.TrimPrefix(vssPath, "$")
	rel = strings.TrimPrefix(rel, "/")
	root := h.depotPath
	for _, m := range h.cfg.ReBranchMappings {
		if m.Re.MatchString(rel) {
			root = "//" + strings.Trim(h.cfg.ImportDepot, "/")
			if m.Prefix != "" {
				root += "/" + strings.Trim(m.Prefix, "/")
			}
			break
		}
	}
	if rel == "" {
		return root
	}
	return root + "/" + rel
}

// classify picks the depot file type for data at path: config typemaps
// first (spec's ambient config layer), falling back to content sniffing
// the same way the binary/text split works without a typemap entry.
func (h *Handler) classify(path string, data []byte) FileType {
	for _, m := range h.cfg.ReTypeMaps {
		if m.RePath.MatchString(path) {
			return m.Filetype
		}
	}
	head := data
	if len(head) > 261 {
		head = head[:261]
	}
	if filetype.IsImage(head) || filetype.IsVideo(head) || filetype.IsArchive(head) || filetype.IsAudio(head) {
		return UBinary
	}
	if filetype.IsDocument(head) {
		return Binary
	}
	return CText
}

func (h *Handler) writeRev(path string, data []byte, action FileAction) error {
	return h.writeDepotRev(h.depotFile(path), data, action)
}

// writeDepotRev is writeRev for a path already resolved to its depot form,
// so the directory-level expansion in DeleteDirectory/RenameDirectory can
// reuse it without re-running depotFile against a vsstree path.
func (h *Handler) writeDepotRev(depotFile string, data []byte, action FileAction) error {
	rev := h.revision[depotFile] + 1
	h.revision[depotFile] = rev
	ftype := h.classify(depotFile, data)
	h.j.WriteRev(depotFile, rev, action, ftype, h.curChange, h.curTime)
	h.live[depotFile] = action != Delete
	return nil
}

// liveUnder returns, in sorted order, every depot path the handler has
// written that is still live (not deleted) and lies at or under prefix.
func (h *Handler) liveUnder(prefix string) []string {
	var out []string
	for p, alive := range h.live {
		if !alive {
			continue
		}
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

// CreateFile implements vsshandler.Handler.
func (h *Handler) CreateFile(path string, data []byte, copyFrom string) error {
	action := Add
	if copyFrom != "" {
		action = Branch
	}
	return h.writeRev(path, data, action)
}

// ChangeFile implements vsshandler.Handler.
func (h *Handler) ChangeFile(path string, data []byte) error {
	return h.writeRev(path, data, Edit)
}

// DeleteFile implements vsshandler.Handler.
func (h *Handler) DeleteFile(path string) error {
	return h.writeRev(path, nil, Delete)
}

// RenameFile implements vsshandler.Handler. Perforce has no native rename
// record in this journal subset; it is expressed as delete-then-branch.
func (h *Handler) RenameFile(oldPath, newPath string) error {
	if err := h.writeRev(oldPath, nil, Delete); err != nil {
		return err
	}
	return h.writeRev(newPath, nil, Branch)
}

// CreateDirectory implements vsshandler.Handler. The journal records being
// written have no directory entities of their own (Perforce depots are
// path-prefix trees, not materialized directories); nothing to emit.
func (h *Handler) CreateDirectory(path string) error { return nil }

// DeleteDirectory implements vsshandler.Handler. Perforce has no directory
// record to delete; instead every depot path this Handler has ever written
// under path that is still live gets its own delete revision, in sorted
// order for a deterministic journal.
func (h *Handler) DeleteDirectory(path string) error {
	prefix := h.depotFile(path)
	for _, p := range h.liveUnder(prefix) {
		if err := h.writeDepotRev(p, nil, Delete); err != nil {
			return err
		}
	}
	return nil
}

// RenameDirectory implements vsshandler.Handler; see DeleteDirectory. Every
// live depot path under oldPath is deleted and re-created (branched) under
// the corresponding path under newPath, the same delete-then-branch
// degradation RenameFile uses for a single file.
func (h *Handler) RenameDirectory(oldPath, newPath string) error {
	oldPrefix := h.depotFile(oldPath)
	newPrefix := h.depotFile(newPath)
	for _, p := range h.liveUnder(oldPrefix) {
		newDepot := newPrefix + strings.TrimPrefix(p, oldPrefix)
		if err := h.writeDepotRev(p, nil, Delete); err != nil {
			return err
		}
		if err := h.writeDepotRev(newDepot, nil, Branch); err != nil {
			return err
		}
	}
	return nil
}

// CreateFileLabel implements vsshandler.Handler. Writing a label domain
// record is out of scope for this journal subset (spec Non-goals: no
// client/label workspace emulation); recorded as a log line instead so the
// label isn't silently lost.
func (h *Handler) CreateFileLabel(path, label string) error {
	h.log.WithFields(logrus.Fields{"path": path, "label": label}).Info("file label")
	return nil
}

// CreateDirLabel implements vsshandler.Handler; see CreateFileLabel.
func (h *Handler) CreateDirLabel(path, label string) error {
	h.log.WithFields(logrus.Fields{"path": path, "label": label}).Info("directory label")
	return nil
}

// Package vssrevision builds the logical, per-item revision history: each
// RevisionRecord (package vssitemfile) is enriched with database-resolved
// names and, for files, the payload reconstructed by walking the reverse
// delta chain. It also owns ProjectIndex, the itemfile-level bookkeeping
// array of full names that every revision's forward effect mutates — this
// is the authoritative source for the indices later share/branch records
// reference, matching the original implementation's on-the-fly
// apply_to_project_items pass.
package vssrevision

import (
	"github.com/alegrigoriev/py-vss/vssdb"
	"github.com/alegrigoriev/py-vss/vssrecord"
)

// FullName is the tuple (kind, long name, physical name, index name) spec
// §3 defines: a logical name resolved against the database's name file,
// paired with the physical name that identifies the underlying item file.
type FullName struct {
	IsProject    bool
	Name         string
	PhysicalName string
	IndexName    string
}

// NewFullName resolves name's long form via db's name file and pairs it
// with physical.
func NewFullName(db *vssdb.Database, name vssrecord.Name, physical string) (FullName, error) {
	long, err := db.LongName(name)
	if err != nil {
		return FullName{}, err
	}
	return FullName{
		IsProject:    name.IsProject(),
		Name:         long,
		PhysicalName: physical,
		IndexName:    db.IndexName(name.ShortName),
	}, nil
}

func (f FullName) String() string {
	s := f.Name
	if f.IsProject {
		s += "/"
	}
	if f.PhysicalName != "" {
		s += " (" + f.PhysicalName + ")"
	}
	return s
}

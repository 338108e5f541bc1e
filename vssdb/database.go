package vssdb

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/alegrigoriev/py-vss/vssitemfile"
	"github.com/alegrigoriev/py-vss/vssrecord"
	"github.com/sirupsen/logrus"
)

// RootProjectName and RootProjectFile are the fixed logical/physical
// identity of the repository root, per spec §3.
const (
	RootProjectName = "$"
	RootProjectFile = "AAAAAAAA"
)

// Decoder turns a raw VSS byte string (already zero-truncated by the
// record reader) into a Go string. The core never chooses a character
// encoding itself (spec §1 Non-goals/§6 CLI surface): callers of Open
// supply one, defaulting to a straight passthrough (ASCII/UTF-8 compatible).
type Decoder func(raw string) string

func identityDecoder(raw string) string { return raw }

var iniLine = regexp.MustCompile(`^([^= ]+)\s*=\s*(.*)$`)

// simpleIniParser parses the small subset of srcsafe.ini syntax the core
// needs: "key = value" lines, ";"-prefixed comments, blank lines ignored.
type simpleIniParser struct {
	values map[string]string
}

func parseIni(path string) (*simpleIniParser, error) {
	p := &simpleIniParser{values: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil // absent ini file: all defaults apply
		}
		return nil, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		if m := iniLine.FindStringSubmatch(line); m != nil {
			p.values[m[1]] = m[2]
		}
	}
	return p, nil
}

func (p *simpleIniParser) Get(key, fallback string) string {
	if v, ok := p.values[key]; ok {
		return v
	}
	return fallback
}

// loadState marks an in-progress open_records_file call so a branch-parent
// cycle is detected instead of recursing forever (spec §9 "Cyclic branch
// parents"): Loading is the sentinel, Loaded holds the result.
type loadState int

const (
	stateLoading loadState = iota
	stateLoaded
)

type cacheEntry struct {
	state loadState
	item  any // *vssitemfile.ProjectItemFile or *vssitemfile.FileItemFile
	err   error
}

// Database owns the base path, the shared name file, and the open-item-file
// cache keyed by physical name that deduplicates shared files. It lives for
// the whole run.
type Database struct {
	BasePath string
	DataPath string
	Decode   Decoder
	NameFile *vssitemfile.NameFile
	Log      *logrus.Logger

	cache map[string]*cacheEntry
}

// Open reads srcsafe.ini and names.dat under basePath and returns a ready
// Database. A nil decoder defaults to identityDecoder (host ANSI selection
// is an external-collaborator concern per spec §6).
func Open(basePath string, decode Decoder, log *logrus.Logger) (*Database, error) {
	if decode == nil {
		decode = identityDecoder
	}
	if log == nil {
		log = logrus.New()
	}
	ini, err := parseIni(filepath.Join(basePath, "srcsafe.ini"))
	if err != nil {
		return nil, fmt.Errorf("vssdb: srcsafe.ini: %w", err)
	}
	db := &Database{
		BasePath: basePath,
		DataPath: filepath.Join(basePath, ini.Get("Data_Path", "data")),
		Decode:   decode,
		Log:      log,
		cache:    make(map[string]*cacheEntry),
	}

	namesPath := filepath.Join(db.DataPath, "names.dat")
	buf, err := os.ReadFile(namesPath)
	if err != nil {
		return nil, fmt.Errorf("vssdb: %w: %s", ErrVssFileNotFound, namesPath)
	}
	nf, err := vssitemfile.OpenNameFile(buf)
	if err != nil {
		return nil, fmt.Errorf("vssdb: names.dat: %w", err)
	}
	db.NameFile = nf
	return db, nil
}

// dataPathFor returns the on-disk path of physicalName's item file (or, with
// firstLetterSubdir=false, a path directly under the data directory — used
// for names.dat itself, which this type does not route through).
func (db *Database) dataPathFor(physicalName string, firstLetterSubdir bool) string {
	if firstLetterSubdir {
		return filepath.Join(db.DataPath, strings.ToUpper(physicalName[:1]), physicalName)
	}
	return filepath.Join(db.DataPath, physicalName)
}

// OpenDataFile reads physicalName's sibling data file (a File item's
// payload, or a Project's JP entry stream) fully into memory.
func (db *Database) OpenDataFile(physicalName string) ([]byte, error) {
	path := db.dataPathFor(physicalName, true)
	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("vssdb: %w: %s", ErrVssFileNotFound, path)
		}
		return nil, err
	}
	return buf, nil
}

// OpenProjectItemFile returns the cached Project item file for physicalName,
// loading and caching it on first access.
func (db *Database) OpenProjectItemFile(physicalName string) (*vssitemfile.ProjectItemFile, error) {
	v, err := db.openRecordsFile(physicalName, func() (any, error) {
		path := db.dataPathFor(physicalName, true)
		buf, ferr := os.ReadFile(path)
		if ferr != nil {
			if os.IsNotExist(ferr) {
				return nil, fmt.Errorf("vssdb: %w: %s", ErrVssFileNotFound, path)
			}
			return nil, ferr
		}
		return vssitemfile.OpenProjectItemFile(path, buf)
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*vssitemfile.ProjectItemFile), nil
}

// OpenFileItemFile returns the cached File item file for physicalName,
// loading and caching it on first access. If physicalName is already being
// loaded by an outer call on the call stack (a branch-parent cycle), it
// returns (nil, nil): the caller treats that as "parent unresolvable", per
// spec §9.
func (db *Database) OpenFileItemFile(physicalName string) (*vssitemfile.FileItemFile, error) {
	v, err := db.openRecordsFile(physicalName, func() (any, error) {
		path := db.dataPathFor(physicalName, true)
		buf, ferr := os.ReadFile(path)
		if ferr != nil {
			if os.IsNotExist(ferr) {
				return nil, fmt.Errorf("vssdb: %w: %s", ErrVssFileNotFound, path)
			}
			return nil, ferr
		}
		itemFile, operr := vssitemfile.OpenFileItemFile(path, buf)
		if operr != nil {
			return nil, operr
		}
		payload, perr := db.OpenDataFile(physicalName + itemFile.Header.DataExt)
		if perr != nil {
			return nil, perr
		}
		itemFile.LastData = payload
		return itemFile, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*vssitemfile.FileItemFile), nil
}

// openRecordsFile implements the cache+cycle-sentinel protocol shared by
// both item file kinds (spec §4.4 open_records_file).
func (db *Database) openRecordsFile(physicalName string, load func() (any, error)) (any, error) {
	if e, ok := db.cache[physicalName]; ok {
		if e.state == stateLoading {
			// Cycle: caller treats this as "parent unresolvable".
			return nil, nil
		}
		return e.item, e.err
	}
	db.cache[physicalName] = &cacheEntry{state: stateLoading}
	item, err := load()
	db.cache[physicalName] = &cacheEntry{state: stateLoaded, item: item, err: err}
	return item, err
}

// LongName resolves name to its long/project form via the name file,
// falling back to the short name when it carries no name-file offset.
func (db *Database) LongName(name vssrecord.Name) (string, error) {
	s, err := db.NameFile.ResolveLongName(name)
	if err != nil {
		return "", err
	}
	return db.Decode(s), nil
}

// IndexName is VSS's native case-insensitive sort key: the lowercased short
// name.
func (db *Database) IndexName(shortName string) string {
	return vssrecord.Name{ShortName: shortName}.IndexName()
}

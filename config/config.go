package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/alegrigoriev/py-vss/journal"
	yaml "gopkg.in/yaml.v2"
)

const DefaultDepot = "import"
const DefaultBranch = "main"

type BranchMapping struct {
	Name   string `yaml:"name"`   // Regex matched against a VSS project path (e.g. "$/proj1/...")
	Prefix string `yaml:"prefix"` // Depot-path prefix used instead of ImportPath for matching paths
}

// RegexpBranchMap is a BranchMapping with its Name compiled, used by
// journal.Handler.depotFile to rewrite a VSS project-path prefix before it
// reaches the journal.
type RegexpBranchMap struct {
	Prefix string
	Re     *regexp.Regexp
}

// ReTypeMap - parsed into regexp
type RegexpTypeMap struct {
	Filetype journal.FileType // String for path
	RePath   *regexp.Regexp   // Compiled regexp
}

// Config holds the settings for replaying a VSS changeset history into a
// Perforce journal: the destination depot/path root, VSS project-path
// rewrites, and file-type classification rules.
type Config struct {
	ImportDepot      string            `yaml:"import_depot"`
	ImportPath       string            `yaml:"import_path"`
	DefaultBranch    string            `yaml:"default_branch"`
	BranchMappings   []BranchMapping   `yaml:"branch_mappings"`
	ReBranchMappings []RegexpBranchMap
	TypeMaps         []string `yaml:"typemaps"`
	ReTypeMaps       []RegexpTypeMap
}

// Unmarshal the config
func Unmarshal(config []byte) (*Config, error) {
	// Default values specified here
	cfg := &Config{
		ImportDepot:   "import",
		DefaultBranch: "main",
		ReTypeMaps:    make([]RegexpTypeMap, 0),
	}
	err := yaml.Unmarshal(config, cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %v. make sure to use 'single quotes' around strings with special characters (like match patterns)", err.Error())
	}
	err = cfg.validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile - loads config file
func LoadConfigFile(filename string) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to load %v: %v", filename, err.Error())
	}
	cfg, err := LoadConfigString(content)
	if err != nil {
		return nil, fmt.Errorf("failed to load %v: %v", filename, err.Error())
	}
	return cfg, nil
}

// LoadConfigString - loads a string
func LoadConfigString(content []byte) (*Config, error) {
	cfg, err := Unmarshal([]byte(content))
	return cfg, err
}

func (c *Config) validate() error {
	if len(c.BranchMappings) > 0 {
		for _, m := range c.BranchMappings {
			re, err := regexp.Compile(m.Name)
			if err != nil {
				return fmt.Errorf("failed to parse '%s' as a regex", m.Name)
			}
			c.ReBranchMappings = append(c.ReBranchMappings, RegexpBranchMap{Prefix: m.Prefix, Re: re})
		}
	}
	if len(c.TypeMaps) > 0 {
		for _, m := range c.TypeMaps {
			parts := strings.Fields(m)
			if len(parts) != 2 {
				return fmt.Errorf("failed to split '%s' on a space", m)
			}
			ftype := parts[0]
			reStr := parts[1]
			if !strings.Contains(ftype, "binary") && !strings.Contains(ftype, "text") {
				return fmt.Errorf("typemaps must contain either 'binary' or 'text' in first part: %s", m)
			}
			reStr = strings.ReplaceAll(reStr, "...", ".*")
			reStr += "$"
			if rePath, err := regexp.Compile(reStr); err != nil {
				return fmt.Errorf("failed to parse '%s' as a regex", reStr)
			} else {
				baseType := journal.CText
				if strings.Contains(ftype, "binary") {
					baseType = journal.Binary // Compressed or not handled later
				}
				c.ReTypeMaps = append(c.ReTypeMaps, RegexpTypeMap{Filetype: baseType, RePath: rePath})
			}
		}
	}
	return nil
}

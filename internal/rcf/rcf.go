// Package rcf has functions for loading check jobs using the RCF (RuleCheck
// File) format, a TOML-based format that names a grammar, any changes to make
// to it, and the messages to check against it.
package rcf

import (
	"errors"
	"os"
	"unicode"

	"github.com/BurntSushi/toml"
	"github.com/dekarrin/rulecheck/internal/grammar"
)

const MaxManifestRecursionDepth = 32

var (
	// ErrManifestEmpty is the error returned when a manifest file is read
	// successfully but specifies no job files to load.
	ErrManifestEmpty = errors.New("does not list any valid files to include")

	// ErrManifestStackOverflow is the error returned when the recursion level
	// of MaxManifestRecursionDepth is reached and an additional Manifest is
	// then specified, which would cause recursion to go deeper.
	ErrManifestStackOverflow = errors.New("too many manifests deep")

	// ErrManifestCircularRef is the error returned when a manifest specifies
	// any series of files that with their own manifests refer back to the
	// original manifest, and therefore cannot be followed.
	ErrManifestCircularRef = errors.New("manifest inclusion chain refers back to itself")

	// ErrNoGrammar is the error returned when a job gives neither a grammar
	// file nor inline rules.
	ErrNoGrammar = errors.New("job must give grammar.file or grammar.rules")
)

// Job is a fully-loaded check job, ready to be run.
type Job struct {
	// Name is the name of the job. If not given in the file, it is the path
	// of the file it was loaded from.
	Name string

	// Path is the path of the file the job was loaded from.
	Path string

	// Grammar is the grammar with every requested override applied. It is not
	// frozen.
	Grammar *grammar.Grammar

	// Start is the ID of the rule that messages must match.
	Start int

	// Strict is whether the grammar should be checked for undefined rules
	// before any messages are checked.
	Strict bool

	// Messages is every message to check.
	Messages []string

	// Workers is the number of workers to check with. 0 means the default.
	Workers int
}

// FileInfo contains the essential information all RCF files must contain. It
// can be obtained from a file by reading it into memory and calling
// ScanFileInfo on the bytes.
type FileInfo struct {
	Format string `toml:"format"`
	Type   string `toml:"type"`
}

// Load loads every job in the given RCF file. The file's type is auto-detected;
// it can either be "JOB", which gives a single job, or "MANIFEST", in which
// case the files listed in it relative to it are loaded in order, recursively
// following any further manifests.
//
// Paths given within a job file are relative to the directory that file is in.
func Load(path string) ([]Job, error) {
	return recursiveLoad(path, nil)
}

// LoadJobFile loads a single job from a "JOB" type RCF file.
func LoadJobFile(path string) (Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Job{}, err
	}

	unmarshaled, err := unmarshalJob(data)
	if err != nil {
		return Job{}, err
	}

	return parseJob(unmarshaled, path)
}

// ScanFileInfo takes the given bytes and attempts to read the RCF format
// common header info from it. The bytes are read up to the first instance of a
// table definition header and those bytes are parsed for the info. If there is
// an error reading the info, returns a non-nil error.
func ScanFileInfo(data []byte) (FileInfo, error) {
	// only run the toml parser up to the end of the top-lev table
	var topLevelEnd int = -1
	var onNewLine bool = true
	for b := range data {
		if onNewLine {
			if data[b] == '[' {
				topLevelEnd = b
				break
			}
		}

		if data[b] == '\n' {
			onNewLine = true
		} else if !unicode.IsSpace(rune(data[b])) {
			onNewLine = false
		}
	}

	scanData := data
	if topLevelEnd != -1 {
		scanData = data[:topLevelEnd]
	}

	var info FileInfo
	err := toml.Unmarshal(scanData, &info)
	return info, err
}

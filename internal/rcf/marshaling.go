package rcf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// manifStack is for two reasons ->
// * detect circular deps (not an error, but we need to know to avoid them)
// * avoid infinite recursion (allow up to MaxManifestRecursionDepth levels)
//
// Returns ErrManifestEmpty if and only if the first manifest in the stack is
// empty, otherwise it is not an error.
func recursiveLoad(path string, manifStack []string) ([]Job, error) {
	path = filepath.Clean(path)

	fileData, loadErr := os.ReadFile(path)
	if loadErr != nil {
		return nil, fmt.Errorf("%q: reading from disk: %w", path, loadErr)
	}

	fileInfo, err := ScanFileInfo(fileData)
	if err != nil {
		return nil, fmt.Errorf("%q: detecting file type: %w", path, err)
	}

	if strings.ToUpper(fileInfo.Format) != "RCF" {
		return nil, fmt.Errorf("%q: file does not have a 'format = \"RCF\"' entry", path)
	}

	fileType := strings.ToUpper(fileInfo.Type)
	switch fileType {
	case "JOB":
		unmarshaled, err := unmarshalJob(fileData)
		if err != nil {
			return nil, fmt.Errorf("job file %q: %w", path, err)
		}
		job, err := parseJob(unmarshaled, path)
		if err != nil {
			return nil, fmt.Errorf("job file %q: %w", path, err)
		}
		return []Job{job}, nil
	case "MANIFEST":
		if len(manifStack) >= MaxManifestRecursionDepth {
			return nil, fmt.Errorf("manifest file %q: %w", path, ErrManifestStackOverflow)
		}
		for i := range manifStack {
			if manifStack[i] == path {
				return nil, fmt.Errorf("manifest file %q: %w", path, ErrManifestCircularRef)
			}
		}

		manif, err := unmarshalManifest(fileData)
		if err != nil {
			return nil, fmt.Errorf("manifest file %q: %w", path, err)
		}

		if len(manif.Files) < 1 && len(manifStack) == 0 {
			return nil, fmt.Errorf("manifest file %q: %w", path, ErrManifestEmpty)
		}

		// copy the manif stack into a new value and add self to it for recursive calls
		manifSubStack := make([]string, len(manifStack)+1)
		copy(manifSubStack, manifStack)
		manifSubStack[len(manifSubStack)-1] = path

		manifDir := filepath.Dir(path)

		var jobs []Job
		for _, manifRelPath := range manif.Files {
			includedFilePath := filepath.Join(manifDir, manifRelPath)

			included, err := recursiveLoad(includedFilePath, manifSubStack)
			if err != nil {
				// a circular reference is skipped, not failed on
				if errors.Is(err, ErrManifestCircularRef) {
					continue
				}

				return nil, fmt.Errorf("in file referred to by manifest file:\n    %q\n%w", path, err)
			}
			jobs = append(jobs, included...)
		}

		if len(manifStack) == 0 && len(jobs) == 0 {
			return nil, fmt.Errorf("manifest file %q: %w", path, ErrManifestEmpty)
		}
		return jobs, nil

	default:
		return nil, fmt.Errorf("%q: file does not have 'type = ' entry set to either \"JOB\" or \"MANIFEST\"", path)
	}
}

// unmarshalJob unmarshals a job from the given bytes. It does not parse or
// check the grammar.
func unmarshalJob(tomlData []byte) (topLevelJob, error) {
	var rcf topLevelJob
	if tomlErr := toml.Unmarshal(tomlData, &rcf); tomlErr != nil {
		return rcf, tomlErr
	}

	if strings.ToUpper(rcf.Format) != "RCF" {
		return rcf, fmt.Errorf("in header: 'format' key must exist and be set to 'RCF'")
	}
	if strings.ToUpper(rcf.Type) != "JOB" {
		return rcf, fmt.Errorf("in header: 'type' must exist and be set to 'JOB'")
	}

	return rcf, nil
}

// unmarshalManifest unmarshals an RCF manifest from the given bytes.
func unmarshalManifest(tomlData []byte) (topLevelManifest, error) {
	var rcf topLevelManifest
	if tomlErr := toml.Unmarshal(tomlData, &rcf); tomlErr != nil {
		return rcf, tomlErr
	}

	if strings.ToUpper(rcf.Format) != "RCF" {
		return rcf, fmt.Errorf("in header: 'format' key must exist and be set to 'RCF'")
	}
	if strings.ToUpper(rcf.Type) != "MANIFEST" {
		return rcf, fmt.Errorf("in header: 'type' must exist and be set to 'MANIFEST'")
	}

	return rcf, nil
}

package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

// layerAccount is the account that publishes the shared runtime layers.
const layerAccount = "099532377432"

var layerPattern = regexp.MustCompile(`arn:aws:lambda:([a-z0-9-]+):\d+:layer:lambdakit-\d+-\d+-\d+-([^:-]+)-([^:-]+):1`)

func main() {
	var (
		version = flag.String("version", "", "Layer version to pin, e.g. 1.4.0")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
	)
	flag.Parse()

	// Setup logger
	logger := logrus.New()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if *version == "" {
		logger.Fatal("A target version is required. Use: layertool -version 1.4.0 <files>")
	}

	changed, err := updateFiles(*version, flag.Args(), logger)
	if err != nil {
		logger.WithError(err).Fatal("Layer update failed")
	}

	if changed > 0 {
		logger.WithField("files", changed).Info("Layer ARNs updated")
		// Commit hooks read a non-zero exit as "files were rewritten".
		os.Exit(1)
	}

	logger.Debug("All layer ARNs already current")
}

// updateFiles rewrites every pinned layer ARN in the given files to version,
// normalizing the account to the publishing account, and returns how many
// files changed. Missing files are skipped; files already at the target
// version are left untouched.
func updateFiles(version string, filenames []string, logger *logrus.Logger) (int, error) {
	replacement := fmt.Sprintf("arn:aws:lambda:${1}:%s:layer:lambdakit-%s-${2}-${3}:1",
		layerAccount, strings.ReplaceAll(version, ".", "-"))

	changed := 0
	for _, filename := range filenames {
		content, err := os.ReadFile(filename)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.WithField("file", filename).Debug("File not found, skipping")
				continue
			}
			return changed, fmt.Errorf("read %s: %w", filename, err)
		}

		updated := layerPattern.ReplaceAll(content, []byte(replacement))
		if bytes.Equal(updated, content) {
			logger.WithField("file", filename).Debug("No layer ARNs to rewrite")
			continue
		}

		if err := os.WriteFile(filename, updated, fileMode(filename)); err != nil {
			return changed, fmt.Errorf("write %s: %w", filename, err)
		}
		logger.WithField("file", filename).Debug("Layer ARNs rewritten")
		changed++
	}
	return changed, nil
}

func fileMode(filename string) os.FileMode {
	info, err := os.Stat(filename)
	if err != nil {
		return 0o644
	}
	return info.Mode()
}

// Package services holds the post-download processing steps: unwrapping
// subtitle payloads that arrive as bare files or inside zip/rar packs.
package services

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nwaples/rardecode/v2"

	"github.com/subseek/subseek/internal/config"
	"github.com/subseek/subseek/internal/models"
)

var (
	zipMagic = []byte{'P', 'K', 0x03, 0x04}
	rarMagic = []byte("Rar!")
)

// subtitleExtensions are the archive entry extensions treated as subtitles.
var subtitleExtensions = map[string]bool{
	".srt": true,
	".ass": true,
	".ssa": true,
	".vtt": true,
	".sub": true,
}

// Unwrap turns a downloaded payload into a single subtitle file. Bare
// payloads pass through under the plan's file name; zip and rar packs are
// searched for the best subtitle entry. When episode is non-zero, pack
// entries matching that episode number are preferred.
func Unwrap(payload *models.DownloadedPayload, episode int) (*models.SubtitleFile, error) {
	logger := config.GetLogger()

	switch {
	case bytes.HasPrefix(payload.Content, zipMagic):
		logger.Debug().
			Str("file", payload.Plan.FileName).
			Int("episode", episode).
			Msg("Unwrapping zip payload")
		return unwrapZip(payload.Content, episode)
	case bytes.HasPrefix(payload.Content, rarMagic):
		logger.Debug().
			Str("file", payload.Plan.FileName).
			Int("episode", episode).
			Msg("Unwrapping rar payload")
		return unwrapRar(payload.Content, episode)
	default:
		return &models.SubtitleFile{
			FileName: payload.Plan.FileName,
			Content:  payload.Content,
		}, nil
	}
}

// episodePattern matches an episode number in pack entry names with word
// boundaries: S03E01, e01, 3x01, but not E010 when looking for E01.
func episodePattern(episode int) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`(?i)(?:s\d+e%02d(?:\D|$)|e%02d(?:\D|$)|\d+x%02d(?:\D|$))`, episode, episode, episode))
}

// packEntry is one subtitle candidate found inside an archive.
type packEntry struct {
	name    string
	content []byte
}

// pickEntry selects the best subtitle entry: an episode match when one is
// requested and present, otherwise the largest subtitle file in the pack.
func pickEntry(entries []packEntry, episode int) (*models.SubtitleFile, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("no subtitle file found in archive")
	}

	if episode > 0 {
		pattern := episodePattern(episode)
		for _, e := range entries {
			if pattern.MatchString(e.name) {
				return &models.SubtitleFile{FileName: e.name, Content: e.content}, nil
			}
		}
		return nil, fmt.Errorf("episode %d not found in archive (searched %d subtitle files)", episode, len(entries))
	}

	best := entries[0]
	for _, e := range entries[1:] {
		if len(e.content) > len(best.content) {
			best = e
		}
	}
	return &models.SubtitleFile{FileName: best.name, Content: best.content}, nil
}

func isSubtitleEntry(name string) bool {
	return subtitleExtensions[strings.ToLower(filepath.Ext(name))]
}

func unwrapZip(content []byte, episode int) (*models.SubtitleFile, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}

	var entries []packEntry
	for _, file := range reader.File {
		if file.FileInfo().IsDir() || !isSubtitleEntry(file.Name) {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in zip: %w", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from zip: %w", file.Name, err)
		}
		entries = append(entries, packEntry{name: filepath.Base(file.Name), content: data})
	}

	return pickEntry(entries, episode)
}

func unwrapRar(content []byte, episode int) (*models.SubtitleFile, error) {
	reader, err := rardecode.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open rar archive: %w", err)
	}

	var entries []packEntry
	for {
		header, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rar archive: %w", err)
		}
		if header.IsDir || !isSubtitleEntry(header.Name) {
			continue
		}
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from rar: %w", header.Name, err)
		}
		entries = append(entries, packEntry{name: filepath.Base(header.Name), content: data})
	}

	return pickEntry(entries, episode)
}

package media

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grafov/m3u8"
)

// ProbeDuration returns the total duration in seconds of a VOD HLS playlist
// on disk. A master playlist is resolved through its first variant.
func ProbeDuration(path string) (float64, error) {
	return probe(path, 0)
}

func probe(path string, depth int) (float64, error) {
	if depth > 1 {
		return 0, fmt.Errorf("%w: nested master playlists in %s", ErrInvalidMedia, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open playlist: %w", err)
	}
	defer f.Close()

	playlist, listType, err := m3u8.DecodeFrom(f, true)
	if err != nil {
		return 0, fmt.Errorf("parse playlist %s: %w", path, err)
	}

	if listType == m3u8.MASTER {
		master, ok := playlist.(*m3u8.MasterPlaylist)
		if !ok || len(master.Variants) == 0 || master.Variants[0] == nil {
			return 0, fmt.Errorf("%w: master playlist %s has no variants", ErrInvalidMedia, path)
		}
		variant := master.Variants[0].URI
		if !filepath.IsAbs(variant) {
			variant = filepath.Join(filepath.Dir(path), variant)
		}
		return probe(variant, depth+1)
	}

	mediaPlaylist, ok := playlist.(*m3u8.MediaPlaylist)
	if !ok {
		return 0, fmt.Errorf("unexpected playlist type")
	}

	var total float64
	var count int
	for _, seg := range mediaPlaylist.Segments {
		if seg == nil {
			break
		}
		total += seg.Duration
		count++
	}
	if count == 0 {
		return 0, fmt.Errorf("%w: playlist %s contains no segments", ErrInvalidMedia, path)
	}
	if err := ValidateDuration(total); err != nil {
		return 0, err
	}
	return total, nil
}

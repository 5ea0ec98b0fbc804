package formats

// Merge pairs one selected video format with one selected audio format
// into a single combined download.
type Merge struct {
	Video Format
	Audio Format
}

// Selector is the raw yt-dlp format selector for the combined
// download.
func (m Merge) Selector() string {
	return m.Video.ID + "+" + m.Audio.ID
}

// QuickMerge partitions the selected entries of the working set into
// video-only and audio-only subsets. The pairing happens if and only
// if each subset holds exactly one member; any other cardinality
// leaves every entry individually downloadable.
func QuickMerge(fs []Format) (Merge, bool) {
	var (
		videos []Format
		audios []Format
	)

	for _, f := range fs {
		if !f.Selected {
			continue
		}
		if f.AudioOnly() {
			audios = append(audios, f)
		} else {
			videos = append(videos, f)
		}
	}

	if len(videos) != 1 || len(audios) != 1 {
		return Merge{}, false
	}

	return Merge{Video: videos[0], Audio: audios[0]}, true
}

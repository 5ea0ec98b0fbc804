package formats

import (
	"slices"
	"strings"
)

// Format is one remote media variant as reported by the query step
// (yt-dlp -J). Read-only once fetched; Selected is the only field the
// core mutates, it marks participation in a quick-merge.
type Format struct {
	ID             string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Resolution     string  `json:"resolution"`
	Height         int     `json:"height"`
	Width          int     `json:"width"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	TBR            float64 `json:"tbr"`
	Language       string  `json:"language"`

	Selected bool `json:"-"`
}

// AudioOnly reports whether yt-dlp tagged the entry as an audio-only
// stream.
func (f Format) AudioOnly() bool {
	return strings.EqualFold(strings.TrimSpace(f.Resolution), "audio only")
}

// Size returns the exact filesize when known, the approximation
// otherwise.
func (f Format) Size() int64 {
	if f.Filesize > 0 {
		return f.Filesize
	}
	return f.FilesizeApprox
}

// OrderByResolution sorts by height descending, ties broken by total
// bitrate descending. The input is not modified.
func OrderByResolution(fs []Format) []Format {
	out := slices.Clone(fs)
	slices.SortStableFunc(out, compareFormat)
	return out
}

// OrderByResolutionDistinct sorts like OrderByResolution but keeps a
// single representative per height bucket, the one with the highest
// bitrate. Entries without a height are dropped.
func OrderByResolutionDistinct(fs []Format) []Format {
	ordered := make([]Format, 0, len(fs))
	for _, f := range fs {
		if f.Height > 0 {
			ordered = append(ordered, f)
		}
	}
	slices.SortStableFunc(ordered, compareFormat)

	out := ordered[:0]
	lastHeight := -1
	for _, f := range ordered {
		if f.Height == lastHeight {
			continue
		}
		out = append(out, f)
		lastHeight = f.Height
	}
	return slices.Clip(out)
}

func compareFormat(a, b Format) int {
	if a.Height != b.Height {
		if a.Height > b.Height {
			return -1
		}
		return 1
	}
	if a.TBR != b.TBR {
		if a.TBR > b.TBR {
			return -1
		}
		return 1
	}
	return 0
}

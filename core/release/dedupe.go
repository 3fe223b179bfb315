package release

import "github.com/huangsam/defectset/schema"

// DedupeByDate collapses releases that share an exact timestamp. The first
// occurrence keeps its position and the last occurrence's name and ID win,
// which is how issue tracker versions published on the same day are reported.
func DedupeByDate(releases []schema.Release) []schema.Release {
	pos := make(map[int64]int, len(releases))
	out := make([]schema.Release, 0, len(releases))
	for _, r := range releases {
		key := r.Date.UnixNano()
		if i, ok := pos[key]; ok {
			out[i].Name = r.Name
			out[i].ID = r.ID
			continue
		}
		pos[key] = len(out)
		out = append(out, r)
	}
	return out
}

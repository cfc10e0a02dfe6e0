package manifest

// VideoGroup is every segment that cuts from the same source video.
// It is the scheduler's unit of work: one fetch, many extractions, one reap.
type VideoGroup struct {
	VideoID  string
	Segments []Segment
}

// Group partitions segments by source video id. Groups are returned in order
// of first appearance; within a group, input order is preserved.
func Group(segments []Segment) []VideoGroup {
	index := make(map[string]int)
	var groups []VideoGroup

	for _, seg := range segments {
		i, ok := index[seg.VideoID]
		if !ok {
			i = len(groups)
			index[seg.VideoID] = i
			groups = append(groups, VideoGroup{VideoID: seg.VideoID})
		}
		groups[i].Segments = append(groups[i].Segments, seg)
	}

	return groups
}

package gesture

import (
	"sort"
	"time"

	"github.com/ayusman/mudra/internal/geometry"
)

// lane is the per-hand state a session owns.
type lane struct {
	id       int
	tracker  *Tracker
	centroid geometry.Point
	seen     time.Time
}

// laneSet maps detector hands to lanes and owns their lifecycle.
type laneSet struct {
	cfg        Config
	classifier *Classifier
	byID       map[int]*lane
}

func newLaneSet(cfg Config, classifier *Classifier) *laneSet {
	return &laneSet{cfg: cfg, classifier: classifier, byID: make(map[int]*lane)}
}

// assign returns one lane per hand, creating lanes as needed.
func (s *laneSet) assign(hands []geometry.Pixels, now time.Time) []*lane {
	var ids []int
	if s.cfg.Lanes == LanesNearest {
		ids = s.nearest(hands)
	} else {
		ids = make([]int, len(hands))
		for i := range hands {
			ids[i] = i
		}
	}

	out := make([]*lane, len(hands))
	for i, id := range ids {
		l, ok := s.byID[id]
		if !ok {
			tr := NewTracker(s.cfg, s.classifier)
			tr.state.Lane = id
			l = &lane{id: id, tracker: tr}
			s.byID[id] = l
		}
		l.centroid = geometry.FingertipCentroid(&hands[i])
		l.seen = now
		out[i] = l
	}
	return out
}

// nearest greedily pairs hands with the closest live lane. A pair is only
// accepted within ReidDistance hand sizes; the rest get the lowest free id.
func (s *laneSet) nearest(hands []geometry.Pixels) []int {
	type pair struct {
		hand, lane int
		dist       float64
	}

	var pairs []pair
	centroids := make([]geometry.Point, len(hands))
	for i := range hands {
		centroids[i] = geometry.FingertipCentroid(&hands[i])
		limit := s.cfg.ReidDistance * geometry.HandSize(&hands[i])
		for id, l := range s.byID {
			if d := geometry.Distance(centroids[i], l.centroid); d <= limit {
				pairs = append(pairs, pair{hand: i, lane: id, dist: d})
			}
		}
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].dist != pairs[b].dist {
			return pairs[a].dist < pairs[b].dist
		}
		return pairs[a].lane < pairs[b].lane
	})

	ids := make([]int, len(hands))
	for i := range ids {
		ids[i] = -1
	}
	taken := make(map[int]bool)
	for _, p := range pairs {
		if ids[p.hand] >= 0 || taken[p.lane] {
			continue
		}
		ids[p.hand] = p.lane
		taken[p.lane] = true
	}

	next := 0
	for i := range ids {
		if ids[i] >= 0 {
			continue
		}
		for taken[next] || s.byID[next] != nil {
			next++
		}
		ids[i] = next
		taken[next] = true
	}
	return ids
}

// expire drops lanes not seen for longer than LaneTTL. A zero TTL keeps
// lanes forever.
func (s *laneSet) expire(now time.Time) {
	if s.cfg.LaneTTL <= 0 {
		return
	}
	for id, l := range s.byID {
		if now.Sub(l.seen) > s.cfg.LaneTTL {
			delete(s.byID, id)
		}
	}
}

func (s *laneSet) sorted() []*lane {
	out := make([]*lane, 0, len(s.byID))
	for _, l := range s.byID {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

package display

import (
	"sort"

	"portfolio_view/internal/domain/entity"
)

// SnapshotToDisplay folds a full snapshot into an id-keyed project map and
// the summed net worth. This is the initial paint before any per-protocol
// realtime fetch completes.
func SnapshotToDisplay(snaps []entity.ProjectSnapshot, opts Options) (map[string]*Project, float64) {
	dict := make(map[string]*Project, len(snaps))
	var netWorth float64
	for _, snap := range snaps {
		if len(snap.Pools) == 0 {
			continue
		}
		prj := NewProject(snap.ProjectMeta, snap.Pools, MergeReplace, opts)
		dict[prj.ID] = prj
		netWorth += prj.NetWorth
	}
	return dict, netWorth
}

// UpsertProject merges a freshly fetched protocol into the dict. An empty
// pool list means the protocol is no longer held and removes the entry; the
// map only ever keeps projects with at least one pool.
func UpsertProject(snap entity.ProjectSnapshot, dict map[string]*Project, opts Options) {
	if len(snap.Pools) == 0 {
		delete(dict, snap.ID)
		return
	}
	dict[snap.ID] = NewProject(snap.ProjectMeta, snap.Pools, MergeReplace, opts)
}

// PatchProjectHistory applies a historical protocol fetch to the matching
// project. Untouched portfolios default to a zero baseline, which is what
// protocol views want. A nil snapshot (failed fetch) is a no-op.
func PatchProjectHistory(snap *entity.ProjectSnapshot, dict map[string]*Project) {
	if snap == nil {
		return
	}
	prj, ok := dict[snap.ID]
	if !ok {
		return
	}
	prj.PatchHistory(snap.Pools, true)
}

// SumNetWorth re-derives the total across a project dict.
func SumNetWorth(dict map[string]*Project) float64 {
	var total float64
	for _, prj := range dict {
		total += prj.NetWorth
	}
	return total
}

// SortedProjects returns the dict's projects ordered by descending net
// worth, ties broken by id for stable output.
func SortedProjects(dict map[string]*Project) []*Project {
	list := make([]*Project, 0, len(dict))
	for _, prj := range dict {
		list = append(list, prj)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].NetWorth != list[j].NetWorth {
			return list[i].NetWorth > list[j].NetWorth
		}
		return list[i].ID < list[j].ID
	})
	return list
}

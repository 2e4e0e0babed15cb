package roster

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/atc-roster/engine/internal/types"
)

// SectorDemand is the C3 product: for every slot, the deduplicated, sorted
// set of sector positions required by any configuration interval covering
// that slot, and a human label for the §6 "configuration labels" response
// field.
type SectorDemand struct {
	RequiredSectors [][]string        // per slot index
	Labels          map[string]string // "from|to" -> "TX:<codes> | LU:<codes>" or "ALL:<codes>"
}

// BuildSectorDemand implements C3.
func BuildSectorDemand(slots []types.TimeSlot, intervals []types.ConfigInterval) SectorDemand {
	required := make([][]string, len(slots))
	labels := make(map[string]string, len(slots))

	for i, slot := range slots {
		var sectors []string
		byCluster := map[types.Cluster][]string{}
		for _, ci := range intervals {
			if !ci.Covers(slot.Start) {
				continue
			}
			sectors = append(sectors, ci.Sectors...)
			byCluster[ci.Cluster] = append(byCluster[ci.Cluster], ci.Code)
		}
		sectors = lo.Uniq(sectors)
		sort.Strings(sectors)
		required[i] = sectors
		labels[slot.Key()] = formatLabel(byCluster)
	}

	return SectorDemand{RequiredSectors: required, Labels: labels}
}

func formatLabel(byCluster map[types.Cluster][]string) string {
	if codes, ok := byCluster[types.ClusterAll]; ok {
		sort.Strings(codes)
		return fmt.Sprintf("ALL:%s", joinCodes(codes))
	}
	tx := lo.Uniq(byCluster[types.ClusterTX])
	lu := lo.Uniq(byCluster[types.ClusterLU])
	sort.Strings(tx)
	sort.Strings(lu)
	switch {
	case len(tx) > 0 && len(lu) > 0:
		return fmt.Sprintf("TX:%s | LU:%s", joinCodes(tx), joinCodes(lu))
	case len(tx) > 0:
		return fmt.Sprintf("TX:%s", joinCodes(tx))
	case len(lu) > 0:
		return fmt.Sprintf("LU:%s", joinCodes(lu))
	default:
		return ""
	}
}

func joinCodes(codes []string) string {
	out := ""
	for i, c := range codes {
		if i > 0 {
			out += ","
		}
		out += c
	}
	return out
}

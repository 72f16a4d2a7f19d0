package mongo

import (
	"sort"

	"github.com/tarancss/chainscan/lib/block/types"
)

// sortFound orders records from different collections by time.
func sortFound(f []types.Found) {
	sort.SliceStable(f, func(i, j int) bool { return f[i].Time.Before(f[j].Time) })
}

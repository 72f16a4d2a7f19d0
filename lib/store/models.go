package store

import (
	"time"

	"github.com/tarancss/chainscan/lib/block/types"
)

// Run contains the summary of a scan run saved to DB.
type Run struct {
	ID       string       `json:"id" bson:"_id"`
	Started  time.Time    `json:"started" bson:"started"`
	Finished time.Time    `json:"finished" bson:"finished"`
	Chains   []string     `json:"chains" bson:"chains"`
	Checked  uint64       `json:"checked" bson:"checked"`
	Found    int          `json:"found" bson:"found"` // results with a positive value
	Best     *types.Found `json:"best,omitempty" bson:"-"`
}

package domain

// PlotSet is one renderable point-set for a file under the active display
// mode. When a file's raw values have diverged from their original snapshot,
// the session emits two sets for it: the snapshot-derived original (dimmed,
// drawn underneath) and the raw-derived modified.
type PlotSet struct {
	File     FileID     `json:"file"`
	Kind     PlotKind   `json:"kind"`
	Values   []*float64 `json:"values"`
	Locked   bool       `json:"locked"`
	ZOrder   int        `json:"z_order"`
	Opacity  float64    `json:"opacity"`
	Diverged bool       `json:"diverged"`
}

// PlotKind distinguishes the point-sets emitted per file.
type PlotKind string

const (
	// PlotKindCurrent is the set derived from the live raw values.
	PlotKindCurrent PlotKind = "current"
	// PlotKindOriginal is the set derived from the original snapshot,
	// emitted only when the file has diverged.
	PlotKindOriginal PlotKind = "original"
)

// Tick is one axis tick inside the visible window.
type Tick struct {
	Index int   `json:"index"`
	Label Label `json:"label"`
}

// PercentileRow is one difference-order row of the percentile bucket table.
type PercentileRow struct {
	Order  int                 `json:"order"`
	Levels map[string]*float64 `json:"levels"`
	Rank   *float64            `json:"rank,omitempty"`
}

// PlotFrame is everything a chart client needs to render the current state:
// the visible window, its ticks, the per-file point-sets, and the percentile
// table for the active (mode, anchor) pair.
type PlotFrame struct {
	Labels      []Label         `json:"labels"`
	WindowStart int             `json:"window_start"`
	WindowEnd   int             `json:"window_end"`
	Ticks       []Tick          `json:"ticks"`
	Sets        []PlotSet       `json:"sets"`
	Percentiles []PercentileRow `json:"percentiles,omitempty"`
	Mode        string          `json:"mode"`
	AnchorIndex int             `json:"anchor_index"`
}

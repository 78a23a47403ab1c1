package goreadable

// Options tunes the extraction algorithm. The zero value means "use the
// bundle's own defaults": only fields explicitly set to a non-zero value
// cross the boundary into the engine, everything else is left for the
// algorithm to default.
type Options struct {
	// MaxElemsToParse aborts extraction when the parsed document contains
	// more elements than this. Zero means no limit.
	MaxElemsToParse int
	// NbTopCandidates is how many candidate containers the scoring pass
	// keeps when picking the article root. Bundle default is 5.
	NbTopCandidates int
	// CharThreshold is the minimum number of characters a result must
	// carry before extraction is considered successful. Bundle default
	// is 500.
	CharThreshold int
	// ClassesToPreserve lists class names kept on output elements in
	// addition to the bundle's own preserved set.
	ClassesToPreserve []string
	// KeepClasses disables class stripping entirely. ClassesToPreserve is
	// irrelevant when set.
	KeepClasses bool
	// DisableJSONLD skips JSON-LD metadata extraction.
	DisableJSONLD bool
	// LinkDensityModifier adjusts the link-density penalty applied to
	// candidate scores. Positive values make link-heavy blocks more
	// acceptable. Zero means unmodified.
	LinkDensityModifier float64
	// Debug enables diagnostic output inside the bundle, when available.
	Debug bool
}

// wire converts the set fields to the key/value form the engine marshals
// into the guest options object. A nil receiver or all-zero Options yields
// nil, which the glue treats as "all defaults".
func (o *Options) wire() map[string]any {
	if o == nil {
		return nil
	}
	m := make(map[string]any)
	if o.MaxElemsToParse > 0 {
		m["maxElemsToParse"] = o.MaxElemsToParse
	}
	if o.NbTopCandidates > 0 {
		m["nbTopCandidates"] = o.NbTopCandidates
	}
	if o.CharThreshold > 0 {
		m["charThreshold"] = o.CharThreshold
	}
	if len(o.ClassesToPreserve) > 0 {
		m["classesToPreserve"] = o.ClassesToPreserve
	}
	if o.KeepClasses {
		m["keepClasses"] = true
	}
	if o.DisableJSONLD {
		m["disableJSONLD"] = true
	}
	if o.LinkDensityModifier != 0 {
		m["linkDensityModifier"] = o.LinkDensityModifier
	}
	if o.Debug {
		m["debug"] = true
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

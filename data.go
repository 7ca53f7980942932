package components

// Data is the mutable bag threaded through Checkup/Shutdown/createChild
// calls (§4.4, §4.5, §4.6's "data" parameter). It is the direct analogue
// of the teacher's ExecutionCtx: a small tag bag passed down a call chain,
// here carrying the one flag (§4.4/§4.7) and one annotation (§4.5) the
// core actually defines, plus room for future hints without changing every
// call site's signature.
type Data struct {
	values map[string]any
}

// NewData creates an empty Data bag.
func NewData() *Data {
	return &Data{values: make(map[string]any)}
}

// Get retrieves a raw value.
func (d *Data) Get(key string) (any, bool) {
	if d == nil || d.values == nil {
		return nil, false
	}
	v, ok := d.values[key]
	return v, ok
}

// Set stores a raw value, lazily allocating the backing map.
func (d *Data) Set(key string, value any) {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	d.values[key] = value
}

// doNotRestartKey is the hint a caller sets to suppress restart-on-failure
// for the current checkup cascade (§4.4 step 4, §7).
const doNotRestartKey = "doNotRestart"

// DoNotRestart reports whether the data bag carries the doNotRestart hint.
func (d *Data) DoNotRestart() bool {
	v, _ := d.Get(doNotRestartKey)
	b, _ := v.(bool)
	return b
}

// SetDoNotRestart sets the doNotRestart hint.
func (d *Data) SetDoNotRestart(v bool) {
	d.Set(doNotRestartKey, v)
}

// restartAllKey is the annotation a static container's checkup sets when a
// full restart cycle occurred, so observers (the supervisor's notifier)
// can report it (§4.5 "The returned data object is annotated with
// restartAll = true in the static-container case").
const restartAllKey = "restartAll"

// RestartAll reports whether a full restart cycle occurred.
func (d *Data) RestartAll() bool {
	v, _ := d.Get(restartAllKey)
	b, _ := v.(bool)
	return b
}

// SetRestartAll annotates the data bag with restartAll = true.
func (d *Data) SetRestartAll() {
	d.Set(restartAllKey, true)
}

package validation

// Values holds raw form input keyed by field id.
type Values map[string]string

// Func validates a set of form values.
type Func func(Values) ErrorMap

// Chain runs validators in order and merges their results per field.
// A later validator overwrites an earlier one only for the fields it reports.
type Chain []Func

// Validate runs every validator against values. The result is empty when all pass.
func (c Chain) Validate(values Values) ErrorMap {
	errs := ErrorMap{}
	for _, fn := range c {
		errs.Merge(fn(values))
	}
	return errs
}

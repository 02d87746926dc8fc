package ddl

import "slices"

// mergeVisitor receives the classification of every element seen by
// mergeByKey. A non-nil error stops the walk.
type mergeVisitor[T any] struct {
	onlyLeft  func(T) error
	onlyRight func(T) error
	both      func(left, right T) error
}

// mergeByKey sorts copies of left and right by key and walks them with two
// cursors, classifying each element as left-only, right-only or present on
// both sides. Callbacks fire in ascending key order. The inputs are not
// modified.
func mergeByKey[T, K any](left, right []T, key func(T) K, compare func(a, b K) int, v mergeVisitor[T]) error {
	l := slices.Clone(left)
	r := slices.Clone(right)
	byKey := func(a, b T) int { return compare(key(a), key(b)) }
	slices.SortStableFunc(l, byKey)
	slices.SortStableFunc(r, byKey)

	i, j := 0, 0
	for i < len(l) || j < len(r) {
		switch {
		case i >= len(l):
			if err := v.onlyRight(r[j]); err != nil {
				return err
			}
			j++
		case j >= len(r):
			if err := v.onlyLeft(l[i]); err != nil {
				return err
			}
			i++
		default:
			switch c := compare(key(l[i]), key(r[j])); {
			case c < 0:
				if err := v.onlyLeft(l[i]); err != nil {
					return err
				}
				i++
			case c > 0:
				if err := v.onlyRight(r[j]); err != nil {
					return err
				}
				j++
			default:
				if err := v.both(l[i], r[j]); err != nil {
					return err
				}
				i++
				j++
			}
		}
	}
	return nil
}

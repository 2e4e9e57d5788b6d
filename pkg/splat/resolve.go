package splat

import "github.com/Faultbox/splatpack/pkg/sh"

// PropertyDecl is a resolved output property.
type PropertyDecl struct {
	Name string
	Type PropertyType
}

// CommonProperties returns the storage-backed properties present in every
// collection with an identical declared type, in the first collection's
// order. Names present everywhere but with disagreeing types are returned
// in mismatched.
func CommonProperties(cols []Collection) (common []PropertyDecl, mismatched []string) {
	if len(cols) == 0 {
		return nil, nil
	}

	for _, p := range cols[0].Properties() {
		if !p.HasStorage() {
			continue
		}

		present, sameType := true, true
		for _, c := range cols[1:] {
			other := c.Property(p.Name)
			if !other.HasStorage() {
				present = false
				break
			}
			if other.Type != p.Type {
				sameType = false
			}
		}

		switch {
		case !present:
		case !sameType:
			mismatched = append(mismatched, p.Name)
		default:
			common = append(common, PropertyDecl{Name: p.Name, Type: p.Type})
		}
	}
	return common, mismatched
}

// Bands returns the number of SH bands a collection stores.
func Bands(c Collection) int {
	return sh.BandsForCount(countRest(func(name string) bool {
		return c.Property(name).HasStorage()
	}))
}

// DeclBands returns the number of SH bands present in a property list.
func DeclBands(decls []PropertyDecl) int {
	names := make(map[string]bool, len(decls))
	for _, d := range decls {
		names[d.Name] = true
	}
	return sh.BandsForCount(countRest(func(name string) bool { return names[name] }))
}

// MaxBands returns the highest band count stored by any collection.
func MaxBands(cols []Collection) int {
	bands := 0
	for _, c := range cols {
		bands = max(bands, Bands(c))
	}
	return bands
}

// countRest counts contiguous f_rest_* names starting at f_rest_0.
func countRest(has func(string) bool) int {
	n := 0
	for n < sh.MaxCoeffs*3 && has(sh.RestName(n)) {
		n++
	}
	return n
}

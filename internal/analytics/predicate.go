package analytics

// PredicateKind tags the abstract category/subcategory restriction a
// FilterSpec resolves to. Storage adapters translate the predicate into
// their native query language; the engine itself never sees SQL.
type PredicateKind int

const (
	// MatchAll places no category/subcategory restriction.
	MatchAll PredicateKind = iota
	// MatchNone matches nothing: both selections were empty and neither
	// carried the ALL sentinel.
	MatchNone
	// CategoryIn restricts to categories in Values.
	CategoryIn
	// SubcategoryIn restricts to subcategories in Values.
	SubcategoryIn
	// PairsAnyOf restricts to the disjunction of exact (category,
	// subcategory) pairs in Pairs.
	PairsAnyOf
)

// CategoryPair is one exact (category, subcategory) combination.
type CategoryPair struct {
	Category    string
	Subcategory string
}

type Predicate struct {
	Kind   PredicateKind
	Values []string
	Pairs  []CategoryPair
}

// BuildPredicate resolves a FilterSpec's selections into a predicate.
//
// When both dimensions are restricted to explicit sets, the result is the
// disjunction over the cartesian product of the two selections, not an AND of
// two IN clauses: the dimensions are selected independently in the UI and
// only exact pairs are valid matches.
func BuildPredicate(spec FilterSpec) Predicate {
	catsOpen := containsAll(spec.Categories)
	subsOpen := containsAll(spec.Subcategories)
	haveCats := !catsOpen && len(spec.Categories) > 0
	haveSubs := !subsOpen && len(spec.Subcategories) > 0

	switch {
	case len(spec.Categories) == 0 && len(spec.Subcategories) == 0:
		return Predicate{Kind: MatchNone}
	case !haveCats && !haveSubs:
		return Predicate{Kind: MatchAll}
	case haveCats && !haveSubs:
		return Predicate{Kind: CategoryIn, Values: spec.Categories}
	case !haveCats && haveSubs:
		return Predicate{Kind: SubcategoryIn, Values: spec.Subcategories}
	}

	pairs := make([]CategoryPair, 0, len(spec.Categories)*len(spec.Subcategories))
	for _, cat := range spec.Categories {
		for _, sub := range spec.Subcategories {
			pairs = append(pairs, CategoryPair{Category: cat, Subcategory: sub})
		}
	}
	return Predicate{Kind: PairsAnyOf, Pairs: pairs}
}

// Matches evaluates the predicate against one row's category pair. It is the
// reference semantics the storage adapters' SQL translations must agree with.
func (p Predicate) Matches(category, subcategory string) bool {
	switch p.Kind {
	case MatchAll:
		return true
	case MatchNone:
		return false
	case CategoryIn:
		return contains(p.Values, category)
	case SubcategoryIn:
		return contains(p.Values, subcategory)
	case PairsAnyOf:
		for _, pair := range p.Pairs {
			if pair.Category == category && pair.Subcategory == subcategory {
				return true
			}
		}
		return false
	}
	return false
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

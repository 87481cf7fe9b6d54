package plan

// The following documentation describes how a parsed TPL statement is
// turned into grouping queries and back into a grid.
//
// The compile pipeline has 4 stages, executed sequentially, notes the
// execution of the grouping queries themselves is delegated to the exec
// package, this package never touches data
//
// 1) TableSpec build
//    The builder binds every measure occurrence of the statement,
//    normalizes the WHERE clause into a predicate tree and normalizes the
//    ROWS/COLS clauses into axis trees. Nodes with a by-value ordering, ie
//    occupation[5@income.sum], cannot know their member set yet and stay
//    *pending*, the result of this stage is a PendingSpec.
//
// 2) Discovery
//    For each pending node one grouping query is derived, grouped by the
//    node's field plus its ancestor fields, aggregating the referenced
//    measure under the statement filter. Discovery queries must fully
//    complete before anything else happens, their results feed back into
//    the axis trees via Resolve, which ranks the candidates, fixes the
//    top-N member list per parent path and narrows the statement filter to
//    the fixed members. Resolve returns the final immutable TableSpec.
//
// 3) Main query planning
//    Every template leaf of an axis names one grouping level, the fields
//    on its root-to-leaf chain, where ALL nodes contribute nothing. The
//    cross product of row levels and column levels yields the granularity
//    every cell needs, subtotals and the grand total fall out of the ALL
//    levels naturally. Queries are deduplicated by sorted group fields plus
//    canonical filter, aggregate requests are merged into the surviving
//    query since one grouped query returns any number of aggregate columns
//    at no extra cost. Percentage measures add denominator queries at the
//    grouping with the varying axis's fields dropped.
//
// 4) Assembly
//    Done by the grid package: every cross of resolved row and column
//    paths looks up the query matching its field set, reads the aggregate
//    of the matching row, computes percentages against the denominator
//    query and formats the value for display. A combination absent from
//    the result rows is a null cell, which is not an error and not a zero.

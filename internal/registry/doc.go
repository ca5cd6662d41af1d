// Package registry holds the compiled sync rules and the trigger
// index that maps completed actions to the syncs they may fire.
//
// Registration validates eagerly: a sync that references an undeclared
// concept or action, or a variable it never binds, is rejected before
// it can ever fire. The index keeps wildcard buckets so a clause that
// omits the variant matches every variant of its action.
package registry

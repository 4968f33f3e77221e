package domain

// Account is a node in the ledger tree that tasks accrue cost/revenue to
// (§3, §4.H). Cost and revenue are folded into the account's own running
// totals by the scheduler's cost/revenue pass; the account tree itself is
// part of the frozen structural graph.
type Account struct {
	ID       EntityID
	ParentID EntityID // NoEntity for a root account
	Name     string
}

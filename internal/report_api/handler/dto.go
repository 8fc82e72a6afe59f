package handler

// AnomalyQuery filters the prioritized anomaly list. Zero limit means the
// whole list.
type AnomalyQuery struct {
	Limit    int    `form:"limit" binding:"omitempty,min=1"`
	Severity string `form:"severity" binding:"omitempty,oneof=critical high medium low"`
}

// ReconciledQuery filters and paginates the reconciled record list
type ReconciledQuery struct {
	Status  string `form:"status" binding:"omitempty,oneof=matched missing missing_expected discrepancy not_applicable"`
	Page    int    `form:"page,default=1" binding:"min=1"`
	PerPage int    `form:"per_page,default=50" binding:"min=1,max=500"`
}

package model

// Plan is the subscription tier of a user.
type Plan string

const (
	PlanFree Plan = "FREE"
	PlanPro  Plan = "PRO"
)

type Subscription struct {
	Plan Plan `json:"plan"`
}

// DocumentUsage carries the per-plan document quota.
type DocumentUsage struct {
	CurrentPossessDocumentNum     int `json:"currentPossessDocumentNum"`
	FreePlanMaxPossessDocumentNum int `json:"freePlanMaxPossessDocumentNum"`
	ProPlanMaxPossessDocumentNum  int `json:"proPlanMaxPossessDocumentNum"`
}

// User is returned by GET /users/info.
type User struct {
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Subscription  Subscription  `json:"subscription"`
	DocumentUsage DocumentUsage `json:"documentUsage"`
}

// IsPro reports whether the user is on the paid plan.
func (u User) IsPro() bool {
	return u.Subscription.Plan == PlanPro
}

// MaxDocuments returns the document quota for the user's current plan.
func (u User) MaxDocuments() int {
	if u.IsPro() {
		return u.DocumentUsage.ProPlanMaxPossessDocumentNum
	}
	return u.DocumentUsage.FreePlanMaxPossessDocumentNum
}

// CanAddDocument reports whether another document fits in the quota.
func (u User) CanAddDocument() bool {
	return u.DocumentUsage.CurrentPossessDocumentNum < u.MaxDocuments()
}

// PaymentRequest submits the depositor name for a manual bank transfer.
type PaymentRequest struct {
	Name string `json:"name"`
}

// Package business holds the admin console's business and branch models, the
// endpoint bindings for listing and moderating them, and the helpers the
// console uses to present them.
package business

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
)

type BranchStatus string

const (
	StatusPending  BranchStatus = "Pending"
	StatusApproved BranchStatus = "Approved"
	StatusRejected BranchStatus = "Rejected"
)

// Statuses lists the valid branch statuses in display order.
var Statuses = []BranchStatus{StatusApproved, StatusPending, StatusRejected}

func (s BranchStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s BranchStatus) String() string {
	return string(s)
}

// ParseBranchStatus accepts a status in any letter case.
func ParseBranchStatus(v string) (BranchStatus, error) {
	for _, s := range Statuses {
		if strings.EqualFold(string(s), strings.TrimSpace(v)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, v)
}

func (s *BranchStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	status := BranchStatus(raw)
	if !status.Valid() {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, raw)
	}
	*s = status
	return nil
}

type Location struct {
	ID                 string `json:"id"`
	AddressDescription string `json:"addressDescription"`
}

// BusinessHours is one opening window. DayOfWeek runs from 0 (Sunday) to 6.
type BusinessHours struct {
	ID        string `json:"id"`
	DayOfWeek int    `json:"dayOfWeek"`
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
}

type Branch struct {
	ID            string          `json:"id"`
	BranchName    string          `json:"branchName"`
	Status        BranchStatus    `json:"status"`
	IsNewBranch   bool            `json:"isNewBranch"`
	CreatedAt     time.Time       `json:"createdAt"`
	Location      *Location       `json:"location"`
	BusinessHours []BusinessHours `json:"businessHours"`
	DeletedAt     *time.Time      `json:"deletedAt"`
}

func (b Branch) IsDeleted() bool {
	return b.DeletedAt != nil
}

type Owner struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Business struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	BusinessType     *string    `json:"businessType"`
	BusinessImageURL *string    `json:"businessImageUrl"`
	CreatedAt        *time.Time `json:"createdAt"`
	User             Owner      `json:"user"`
	Branches         []Branch   `json:"branches"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

// Page is one page of the business list.
type Page struct {
	Data       []Business `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// UpdateBranchStatus is the body of the status endpoint.
type UpdateBranchStatus struct {
	Status   BranchStatus `json:"status"`
	BranchID string       `json:"branchId,omitempty"`
}

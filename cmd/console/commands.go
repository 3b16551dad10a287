package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/livee-admin-console/business"
	apperrors "github.com/jrsteele09/livee-admin-console/internal/errors"
)

func (c *console) list(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(c.out)
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", c.cfg.GetPageLimit(), "businesses per page")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	result, err := c.businesses.Businesses(ctx, *page, *limit)
	if err != nil {
		return err
	}

	now := time.Now()
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, b := range result.Data {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Name, business.BusinessTypeLabel(b.BusinessType), b.User.Email, business.FormatDate(b.CreatedAt))
		fmt.Fprintf(tw, "\t%s\t\t\t\n", business.BranchStatusSummary(b.Branches))
		for _, br := range b.Branches {
			fmt.Fprintf(tw, "\t- %s\t%s\t%s\t%s\n", br.ID, br.BranchName, c.branchState(br, now), business.FormatBusinessHours(br.BusinessHours))
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	p := result.Pagination
	fmt.Fprintf(c.out, "Page %d of %d (%d businesses)\n", p.Page, p.TotalPages, p.TotalItems)
	return nil
}

func (c *console) branchState(br business.Branch, now time.Time) string {
	if !br.IsDeleted() {
		if br.IsNewBranch {
			return br.Status.String() + " (new)"
		}
		return br.Status.String()
	}
	if c.grace.Active(*br.DeletedAt, now) {
		return fmt.Sprintf("Deleted (%d days left)", c.grace.RemainingDays(*br.DeletedAt, now))
	}
	return "Deleted"
}

func (c *console) setStatus(ctx context.Context, args []string, status business.BranchStatus) error {
	if len(args) != 2 {
		fmt.Fprintln(c.out, "expected <businessId> <branchId>")
		return errUsage
	}
	err := c.businesses.UpdateBranchStatus(ctx, args[0], business.UpdateBranchStatus{Status: status, BranchID: args[1]})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Branch %s %s\n", args[1], status)
	return c.businesses.Wait()
}

func (c *console) deleteBranch(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "expected <branchId>")
		return errUsage
	}
	if err := c.businesses.DeleteBranch(ctx, args[0]); err != nil {
		return err
	}
	now := time.Now()
	fmt.Fprintf(c.out, "Branch %s deleted; it can be restored for %d days\n", args[0], c.grace.RemainingDays(now, now))
	return c.businesses.Wait()
}

func (c *console) deleteBusiness(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(c.out, "expected <businessId>")
		return errUsage
	}
	if err := c.businesses.DeleteBusiness(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Business %s deleted\n", args[0])
	return c.businesses.Wait()
}

func (c *console) stats(ctx context.Context) error {
	s, err := c.businesses.Dashboard(ctx)
	if err != nil {
		return apperrors.Wrapf(err, "stats")
	}
	fmt.Fprintf(c.out, "Businesses: %d\n", s.Businesses)
	fmt.Fprintf(c.out, "Branches: %d approved, %d pending, %d rejected, %d deleted\n",
		s.Branches.Approved, s.Branches.Pending, s.Branches.Rejected, s.Branches.Deleted)
	for _, share := range s.TopCategories {
		fmt.Fprintf(c.out, "  %-20s %3d%% (%d)\n", share.Label, share.Percent, share.Count)
	}
	return nil
}

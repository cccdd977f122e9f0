package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"driftd/infra/sqlite"
	"driftd/internal/drift"
	"driftd/internal/reconcile"
)

// Report renders a drift report, one block per drifted subject.
func Report(r drift.Report) string {
	if r.InSync() {
		return SuccessMsg("workload in sync") + "\n"
	}

	var sb strings.Builder
	sb.WriteString(WarnMsg("drift detected: %s across %s",
		plural(r.Count(), "issue"), plural(len(r.Entries), "subject")) + "\n")
	for _, e := range r.Entries {
		sb.WriteString("  " + subject(e.Name) + "\n")
		for _, m := range e.Mismatches {
			sb.WriteString("    - " + m.Reason + " " + Dimension(m.Dimension) + "\n")
		}
	}
	return sb.String()
}

// Outcome renders a cycle result: the report followed by what was done.
func Outcome(out reconcile.Outcome) string {
	var sb strings.Builder
	if out.ManifestErr != nil {
		sb.WriteString(WarnMsg("manifest unreadable, desired state treated as empty: %v", out.ManifestErr) + "\n")
	}
	if out.DetectErr != nil {
		sb.WriteString(ErrorMsg("could not read observed state: %v", out.DetectErr) + "\n")
		return sb.String()
	}
	sb.WriteString(Report(out.Report))

	switch {
	case out.RemediationErr != nil:
		sb.WriteString(ErrorMsg("remediation failed: %v", out.RemediationErr) + "\n")
	case out.Remediated:
		sb.WriteString(SuccessMsg("workload recreated from manifest") + "\n")
	case out.Drifted():
		sb.WriteString(InfoMsg("run with --remediate to recreate the workload") + "\n")
	}

	switch {
	case out.SyncErr != nil:
		sb.WriteString(ErrorMsg("repository sync failed: %v", out.SyncErr) + "\n")
	case out.Sync.IsValid():
		sb.WriteString(SyncResult(out.Sync.String()) + "\n")
	}
	if out.Phase.IsValid() {
		sb.WriteString(mutedStyle.Render("cycle ended ") + Phase(out.Phase) + "\n")
	}
	return sb.String()
}

// SyncResult renders a git sync result name.
func SyncResult(result string) string {
	switch result {
	case "synchronized":
		return SuccessMsg("repository synchronized")
	case "up_to_date":
		return SuccessMsg("repository up to date")
	default:
		return InfoMsg("repository %s", result)
	}
}

// History renders recorded cycles as a table, newest first.
func History(entries []sqlite.Entry) string {
	if len(entries) == 0 {
		return mutedStyle.Render("no cycles recorded") + "\n"
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Started.Local().Format(time.DateTime),
			e.Finished.Sub(e.Started).Round(time.Millisecond).String(),
			Phase(e.Phase),
			driftCell(e.DriftCount),
			remediationCell(e),
			syncCell(e),
		})
	}
	return historyTable([]string{"ID", "STARTED", "DURATION", "PHASE", "DRIFT", "REMEDIATION", "SYNC"}, rows) + "\n"
}

func driftCell(n int) string {
	if n == 0 {
		return mutedStyle.Render("0")
	}
	return driftStyle.Render(strconv.Itoa(n))
}

func remediationCell(e sqlite.Entry) string {
	switch {
	case e.RemediationErr != "":
		return failedStyle.Render("failed")
	case e.Remediated:
		return syncedStyle.Render("recreated")
	case e.DetectErr != "":
		return driftStyle.Render("skipped")
	default:
		return mutedStyle.Render("-")
	}
}

func syncCell(e sqlite.Entry) string {
	switch {
	case e.SyncErr != "":
		return failedStyle.Render("failed")
	case e.Sync == "synchronized":
		return syncedStyle.Render(e.Sync)
	case e.Sync != "":
		return mutedStyle.Render(e.Sync)
	default:
		return mutedStyle.Render("-")
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

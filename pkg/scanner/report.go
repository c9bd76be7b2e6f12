package scanner

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/archbase/archbase-cli/pkg/util"
)

// DefaultReportPath is where the CLI writes scan reports.
const DefaultReportPath = "./archbase-scan-report.json"

// BuildReport wraps result in a ScanReport with a fresh id.
func BuildReport(result *ProjectScanResult) *ScanReport {
	return &ScanReport{
		ID:              uuid.NewString(),
		GeneratedAt:     time.Now().UTC(),
		Summary:         result.Statistics,
		Components:      result.Components,
		Patterns:        result.Patterns,
		Migration:       result.Migration,
		Dependencies:    result.Dependencies,
		Recommendations: Recommendations(result),
	}
}

// WriteReport builds a report for result and writes it to path as indented
// JSON.
func WriteReport(result *ProjectScanResult, path string) (*ScanReport, error) {
	report := BuildReport(result)
	if err := util.WriteJSONFile(path, report); err != nil {
		return nil, &util.AnalyzerError{Op: "report", Path: path, Err: err}
	}
	return report, nil
}

// Recommendations lists the follow-ups a scan result calls for.
func Recommendations(result *ProjectScanResult) []string {
	recs := []string{}
	if n := result.Statistics.IssuesFound; n > 0 {
		recs = append(recs, fmt.Sprintf("Fix %d component issues found", n))
	}
	if len(result.Migration.V1ToV2Candidates) > 0 {
		recs = append(recs, "Consider migrating to DataSource V2 for better performance")
	}
	if len(result.Dependencies.MissingDependencies) > 0 {
		recs = append(recs, "Install recommended dependencies for better integration")
	}
	if len(result.Patterns.Recommended) > 0 {
		recs = append(recs, "Implement recommended patterns for better maintainability")
	}
	return recs
}

// AutoFix walks every issue in result. Issues that carry a fix and are not
// errors count as fixed, the rest are skipped. Source files are not
// rewritten; Actions describes what would change.
func AutoFix(result *ProjectScanResult, dryRun bool, logger *slog.Logger) FixResult {
	logger = util.OrDefault(logger)
	out := FixResult{Errors: []string{}, Actions: []string{}}

	verb := "Fixing"
	if dryRun {
		verb = "Would fix"
	}
	for _, c := range result.Components {
		for _, issue := range c.Issues {
			if issue.Fix == "" || issue.Type == IssueError {
				out.Skipped++
				continue
			}
			action := fmt.Sprintf("%s: %s in %s", verb, issue.Message, c.File)
			out.Actions = append(out.Actions, action)
			logger.Info(action, "fix", issue.Fix, "line", issue.Line)
			out.Fixed++
		}
	}
	return out
}

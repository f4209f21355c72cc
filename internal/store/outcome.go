package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/batpad/ll-html/internal/budget"
	"github.com/batpad/ll-html/internal/jsonutil"
	"github.com/batpad/ll-html/internal/repair"
	"github.com/batpad/ll-html/internal/research"
	"github.com/batpad/ll-html/internal/validation"
)

const (
	PathArtifact = "artifact.html"
	PathReport   = "report.json"
	PathResearch = "research.json"
)

// VersionPath is where version n of the artifact is kept.
func VersionPath(n int) string { return fmt.Sprintf("versions/v%d.html", n) }

// Record is what a finished session hands to the sink. Final and Versions
// are empty when no artifact was generated.
type Record struct {
	SessionID string
	Request   string
	Status    string
	Reason    string
	Research  *research.Context
	Final     *repair.Version
	Versions  []repair.Version
	Budget    budget.Snapshot
}

type versionSummary struct {
	ID       string `json:"id"`
	Version  int    `json:"version"`
	ParentID string `json:"parent_id,omitempty"`
	Origin   string `json:"origin"`
	Score    int    `json:"score"`
	Issues   int    `json:"issues"`
}

type reportFile struct {
	SessionID string             `json:"session_id"`
	Request   string             `json:"request"`
	Status    string             `json:"status"`
	Reason    string             `json:"reason,omitempty"`
	Template  string             `json:"template,omitempty"`
	Version   int                `json:"version,omitempty"`
	Report    *validation.Report `json:"report,omitempty"`
	Versions  []versionSummary   `json:"versions"`
	Budget    budget.Snapshot    `json:"budget"`
}

// SaveOutcome writes the final artifact, the report, the research context
// and every version. It keeps going after a failed write and returns all
// failures joined.
func SaveOutcome(ctx context.Context, s Store, rec Record) error {
	var errs []error
	put := func(path string, data []byte) {
		if err := s.Put(ctx, rec.SessionID, path, data); err != nil {
			errs = append(errs, fmt.Errorf("store: put %s: %w", path, err))
		}
	}
	putJSON := func(path string, v any) {
		b, err := jsonutil.MarshalIndent(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("store: encode %s: %w", path, err))
			return
		}
		put(path, b)
	}

	report := reportFile{
		SessionID: rec.SessionID,
		Request:   rec.Request,
		Status:    rec.Status,
		Reason:    rec.Reason,
		Versions:  []versionSummary{},
		Budget:    rec.Budget,
	}
	if rec.Final != nil {
		put(PathArtifact, []byte(rec.Final.Artifact.Text))
		r := rec.Final.Report
		report.Report = &r
		report.Template = string(rec.Final.Artifact.Template)
		report.Version = rec.Final.Artifact.Version
	}
	for _, v := range rec.Versions {
		put(VersionPath(v.Artifact.Version), []byte(v.Artifact.Text))
		report.Versions = append(report.Versions, versionSummary{
			ID:       v.Artifact.ID,
			Version:  v.Artifact.Version,
			ParentID: v.Artifact.ParentID,
			Origin:   string(v.Artifact.Origin),
			Score:    v.Report.Score,
			Issues:   len(v.Report.Issues),
		})
	}
	putJSON(PathReport, report)
	if rec.Research != nil {
		putJSON(PathResearch, rec.Research)
	}
	return errors.Join(errs...)
}

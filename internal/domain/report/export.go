package report

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"buildinspect/internal/domain"
	"buildinspect/internal/domain/inspection"
)

const (
	none = "(none)"

	titlePrefix     = "Inspection Report #"
	ownerPrefix     = "Owner: "
	locationPrefix  = "Building location: "
	datePrefix      = "Inspection date: "
	evaluationTitle = "Structural safety evaluation:"
	checklistTitle  = "Compliance checklist:"
	decisionPrefix  = "Decision: "
	remarksTitle    = "Remarks:"
)

var ErrMalformed = errors.New("malformed report export")

// Export renders the plain-text download. The field order is fixed and
// empty sections print (none).
func Export(d *Document) string {
	lines := []string{
		titlePrefix + strconv.FormatInt(d.ID, 10),
		fmt.Sprintf("%s%s (%s)", ownerPrefix, d.OwnerUsername, d.OwnerEmail),
		locationPrefix + d.Location,
		datePrefix + d.InspectionDate.UTC().Format(time.RFC3339),
		"",
		evaluationTitle,
		orNone(d.StructuralEvaluation),
		"",
		checklistTitle,
		orNone(d.ComplianceChecklist),
		"",
		decisionPrefix + string(d.Decision),
		"",
		remarksTitle,
		orNone(d.Remarks),
	}
	return strings.Join(lines, "\n")
}

// Parse reads an Export back. Section bodies may span lines; a body that
// itself contains the next section's heading is ambiguous and splits early.
func Parse(text string) (*Document, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	head, rest, ok := strings.Cut(text, "\n\n"+evaluationTitle+"\n")
	if !ok {
		return nil, malformed("missing %q section", evaluationTitle)
	}
	evaluation, rest, ok := strings.Cut(rest, "\n\n"+checklistTitle+"\n")
	if !ok {
		return nil, malformed("missing %q section", checklistTitle)
	}
	checklist, rest, ok := strings.Cut(rest, "\n\n"+decisionPrefix)
	if !ok {
		return nil, malformed("missing decision line")
	}
	decision, remarks, ok := strings.Cut(rest, "\n\n"+remarksTitle+"\n")
	if !ok {
		return nil, malformed("missing %q section", remarksTitle)
	}

	d := &Document{
		StructuralEvaluation: fromNone(evaluation),
		ComplianceChecklist:  fromNone(checklist),
		Decision:             inspection.Decision(decision),
		Remarks:              fromNone(remarks),
	}
	if !d.Decision.Valid() {
		return nil, malformed("unknown decision %q", decision)
	}
	if err := parseHead(head, d); err != nil {
		return nil, err
	}
	return d, nil
}

func parseHead(head string, d *Document) error {
	lines := strings.Split(head, "\n")
	if len(lines) != 4 {
		return malformed("expected 4 header lines, got %d", len(lines))
	}

	idText, ok := strings.CutPrefix(lines[0], titlePrefix)
	if !ok {
		return malformed("missing title")
	}
	id, err := strconv.ParseInt(idText, 10, 64)
	if err != nil {
		return malformed("bad report id %q", idText)
	}
	d.ID = id

	owner, ok := strings.CutPrefix(lines[1], ownerPrefix)
	if !ok || !strings.HasSuffix(owner, ")") {
		return malformed("bad owner line")
	}
	i := strings.LastIndex(owner, " (")
	if i < 0 {
		return malformed("bad owner line")
	}
	d.OwnerUsername = owner[:i]
	d.OwnerEmail = strings.TrimSuffix(owner[i+2:], ")")

	loc, ok := strings.CutPrefix(lines[2], locationPrefix)
	if !ok {
		return malformed("missing building location")
	}
	d.Location = loc

	dateText, ok := strings.CutPrefix(lines[3], datePrefix)
	if !ok {
		return malformed("missing inspection date")
	}
	date, err := time.Parse(time.RFC3339, dateText)
	if err != nil {
		return malformed("bad inspection date %q", dateText)
	}
	d.InspectionDate = date
	return nil
}

func orNone(s string) string {
	if s == "" {
		return none
	}
	return s
}

func fromNone(s string) string {
	if s == none {
		return ""
	}
	return s
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %s", domain.ErrValidation, ErrMalformed, fmt.Sprintf(format, args...))
}
